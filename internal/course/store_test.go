package course_test

import (
	"context"
	"errors"
	"testing"

	"github.com/eduforge/eduforge/internal/course"
)

func TestMemoryStore_AddAndGet(t *testing.T) {
	store := course.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Add(ctx, course.Course{Title: "Go for Analysts", Instructor: "Ivan Orlov"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if id == "" {
		t.Fatal("Add() returned empty id")
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Go for Analysts" {
		t.Errorf("Title = %q, want Go for Analysts", got.Title)
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := course.NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, course.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := course.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Add(ctx, course.Course{Title: "Draft"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := store.Update(ctx, id, course.Course{Title: "Published"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Published" {
		t.Errorf("Title = %q, want Published", got.Title)
	}
	if got.ID != id {
		t.Errorf("ID = %q, want %q (Update must not change the id)", got.ID, id)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := course.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Add(ctx, course.Course{Title: "Temporary"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, id); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_List_Seeded(t *testing.T) {
	store := course.NewMemoryStore(
		course.Course{ID: "b", Title: "Beta"},
		course.Course{ID: "a", Title: "Alpha"},
	)

	courses, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("List() = %d courses, want 2", len(courses))
	}
	if courses[0].Title != "Alpha" || courses[1].Title != "Beta" {
		t.Errorf("List() order = %q, %q; want Alpha, Beta", courses[0].Title, courses[1].Title)
	}
}
