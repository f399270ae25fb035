package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nikitaegorov/storefront/internal/domain"
	"github.com/nikitaegorov/storefront/internal/storage/memory"
)

func TestIdempotencyRepository_CreateProcessing(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	record, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}

	// Повтор с тем же телом возвращает существующую запись.
	existing, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.Key != "key-1" {
		t.Fatalf("unexpected record: %+v", existing)
	}

	// Тот же ключ с другим телом — конфликт.
	if _, err := repo.CreateProcessing("key-1", "hash-other", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDoneStoresResponse(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateProcessing("key-1", "hash-1", ttl); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	body := []byte(`{"id":"order-1"}`)
	if err := repo.MarkDone("key-1", body, 201); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone || record.HTTPStatus != 201 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if string(record.ResponseBody) != string(body) {
		t.Fatalf("unexpected body: %s", record.ResponseBody)
	}
}

func TestIdempotencyRepository_MarkFailedStoresResponse(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateProcessing("key-1", "hash-1", ttl); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkFailed("key-1", []byte(`{"error":"boom"}`), 500); err != nil {
		t.Fatalf("mark failed returned error: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusFailed || record.HTTPStatus != 500 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestIdempotencyRepository_UnknownKey(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyRecordNotFound) {
		t.Fatalf("expected ErrIdempotencyRecordNotFound, got %v", err)
	}
	if err := repo.MarkDone("missing", nil, 200); !errors.Is(err, domain.ErrIdempotencyRecordNotFound) {
		t.Fatalf("expected ErrIdempotencyRecordNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	if _, err := repo.CreateProcessing("expired-1", "hash", now.Add(-time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("expired-2", "hash", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("fresh", "hash", now.Add(time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := repo.DeleteExpired(now, 100)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh record must survive: %v", err)
	}
	if _, err := repo.Get("expired-1"); !errors.Is(err, domain.ErrIdempotencyRecordNotFound) {
		t.Fatalf("expected expired record gone, got %v", err)
	}
}
