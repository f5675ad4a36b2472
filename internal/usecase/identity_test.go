package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/orionchat/registry"
	"github.com/orionchat/registry/codec"
	"github.com/orionchat/registry/internal/domain"
)

type mockIdentityRepo struct {
	mu        sync.Mutex
	records   map[string]domain.IdentityRecord
	upserts   int
	failCount int
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{records: make(map[string]domain.IdentityRecord)}
}

func (m *mockIdentityRepo) Upsert(ctx context.Context, record domain.IdentityRecord) (domain.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCount > 0 {
		m.failCount--
		return domain.IdentityRecord{}, domain.StorageUnavailableError{}
	}

	m.upserts++
	record.UpdatedAt = time.Now()
	m.records[record.UserID] = record
	return record, nil
}

func (m *mockIdentityRepo) Get(ctx context.Context, userID string) (domain.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[userID]
	if !ok {
		return domain.IdentityRecord{}, domain.NotFoundError{Resource: "identity"}
	}
	return record, nil
}

func (m *mockIdentityRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}

func testKey(seed byte) []byte {
	key := make([]byte, registry.SerializedKeyLen)
	key[0] = registry.KeyTypeByte
	for i := 1; i < len(key); i++ {
		key[i] = seed
	}
	return key
}

func newIdentityUsecase(repo IdentityRepository) *IdentityUsecase {
	return NewIdentityUsecase(repo, codec.Default(), testConfig())
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey(testKey(1)); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if err := ValidateKey(testKey(1)[:32]); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key for short input, got %v", err)
	}

	wrongType := testKey(1)
	wrongType[0] = 0x04
	if err := ValidateKey(wrongType); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key for wrong type byte, got %v", err)
	}
}

func TestValidateRegistrationID(t *testing.T) {
	for _, id := range []int{registry.MinRegistrationID, registry.MaxRegistrationID, 42} {
		if err := ValidateRegistrationID(id); err != nil {
			t.Fatalf("valid id %d rejected: %v", id, err)
		}
	}
	for _, id := range []int{0, -1, registry.MaxRegistrationID + 1} {
		if err := ValidateRegistrationID(id); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for id %d, got %v", id, err)
		}
	}
}

func TestIdentityUpsertIdempotent(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := newIdentityUsecase(repo)

	key := testKey(7)
	first, err := uc.Upsert(context.Background(), "user-1", key, 1234)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	second, err := uc.Upsert(context.Background(), "user-1", key, 1234)
	if err != nil {
		t.Fatalf("repeated upsert failed: %v", err)
	}

	if !bytes.Equal(first.PublicKey, second.PublicKey) || first.RegistrationID != second.RegistrationID {
		t.Fatalf("repeated upsert changed the record")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected a single record, got %d", len(repo.records))
	}
}

func TestIdentityUpsertReplaces(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := newIdentityUsecase(repo)

	if _, err := uc.Upsert(context.Background(), "user-1", testKey(1), 100); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	rotated, err := uc.Upsert(context.Background(), "user-1", testKey(2), 200)
	if err != nil {
		t.Fatalf("rotation failed: %v", err)
	}
	if rotated.RegistrationID != 200 || !bytes.Equal(rotated.PublicKey, testKey(2)) {
		t.Fatalf("rotation did not replace the record")
	}

	stored, err := uc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(stored.PublicKey, testKey(2)) {
		t.Fatalf("old key survived rotation")
	}
}

func TestIdentityUpsertConcurrent(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := newIdentityUsecase(repo)

	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			if _, err := uc.Upsert(context.Background(), "user-1", testKey(byte(seed+1)), seed+1); err != nil {
				t.Errorf("upsert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// the surviving record must be one of the submitted pairs, never a mix
	stored, err := uc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if int(stored.PublicKey[1]) != stored.RegistrationID {
		t.Fatalf("torn record: key seed %d with registration id %d", stored.PublicKey[1], stored.RegistrationID)
	}
}

func TestIdentityUpsertRejectsBadInput(t *testing.T) {
	uc := newIdentityUsecase(newMockIdentityRepo())

	if _, err := uc.Upsert(context.Background(), "user-1", []byte{1, 2, 3}, 100); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
	if _, err := uc.Upsert(context.Background(), "user-1", testKey(1), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIdentityUpsertRetriesFault(t *testing.T) {
	repo := newMockIdentityRepo()
	repo.failCount = 1
	uc := newIdentityUsecase(repo)

	if _, err := uc.Upsert(context.Background(), "user-1", testKey(1), 100); err != nil {
		t.Fatalf("expected retry to recover from transient fault, got %v", err)
	}
}

func TestIdentityDeleteIdempotent(t *testing.T) {
	repo := newMockIdentityRepo()
	uc := newIdentityUsecase(repo)

	if _, err := uc.Upsert(context.Background(), "user-1", testKey(1), 100); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := uc.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := uc.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("repeated delete failed: %v", err)
	}

	if _, err := uc.Get(context.Background(), "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	uc := newIdentityUsecase(newMockIdentityRepo())

	record := domain.IdentityRecord{UserID: "user-1", PublicKey: testKey(1), RegistrationID: 100}

	first, err := uc.Fingerprint(record)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if len(first) != 30 {
		t.Fatalf("expected 30 digits, got %d", len(first))
	}
	for _, r := range first {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in fingerprint: %q", first)
		}
	}

	second, err := uc.Fingerprint(record)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprint not deterministic")
	}

	other, err := uc.Fingerprint(domain.IdentityRecord{UserID: "user-2", PublicKey: testKey(1), RegistrationID: 100})
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if first == other {
		t.Fatalf("different users produced the same fingerprint")
	}
}
