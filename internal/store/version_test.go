package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"refto/internal/models"
)

func TestVersionStoreCurrentIgnoresInsertOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sites := NewSiteStore(db)
	versions := NewVersionStore(db)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	created := createTestSite(t, db, "resolver", base)

	// Insert a newer date, then an older one: the newer date stays current.
	newer, err := sites.AddVersion(ctx, created.Site.ID, nil, SiteUpdate{},
		models.Version{VersionDate: base.AddDate(0, 0, 5), WebCover: "newer.png"}, nil)
	if err != nil {
		t.Fatalf("AddVersion newer: %v", err)
	}
	if _, err := sites.AddVersion(ctx, created.Site.ID, nil, SiteUpdate{},
		models.Version{VersionDate: base.AddDate(0, 0, -5), WebCover: "older.png"}, nil); err != nil {
		t.Fatalf("AddVersion older: %v", err)
	}

	current, err := versions.Current(ctx, created.Page.ID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current == nil || current.ID != newer.ID {
		t.Fatalf("current: got %+v, want %s", current, newer.ID)
	}

	history, err := versions.ListByPage(ctx, created.Page.ID)
	if err != nil {
		t.Fatalf("ListByPage: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length: got %d, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].VersionDate.After(history[i-1].VersionDate) {
			t.Errorf("history not ordered newest first at %d", i)
		}
	}
}

func TestVersionStoreCurrentTieBreak(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sites := NewSiteStore(db)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created := createTestSite(t, db, "tiebreak", date)

	// Same version date: the later insert wins.
	later, err := sites.AddVersion(ctx, created.Site.ID, nil, SiteUpdate{},
		models.Version{VersionDate: date, WebCover: "later.png"}, nil)
	if err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	for i := 0; i < 3; i++ {
		current, err := NewVersionStore(db).Current(ctx, created.Page.ID)
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		if current.ID != later.ID {
			t.Fatalf("tie-break not stable: got %s, want %s", current.ID, later.ID)
		}
	}
}

func TestVersionStoreCurrentMissingPage(t *testing.T) {
	db := testDB(t)

	v, err := NewVersionStore(db).Current(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v != nil {
		t.Error("expected nil for a page without versions")
	}
}

func TestVersionStoreTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tag := createTestTag(t, db, "vtag")
	created := createTestSite(t, db, "vtags", time.Now())

	v, err := NewSiteStore(db).AddVersion(ctx, created.Site.ID, nil, SiteUpdate{},
		models.Version{WebCover: "tagged.png"}, []uuid.UUID{tag.ID, uuid.New()})
	if err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	found, err := NewVersionStore(db).FindByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(found.TagIDs) != 1 || found.TagIDs[0] != tag.ID {
		t.Errorf("unknown tags must be skipped: got %v", found.TagIDs)
	}
}

func TestPageStoreDefaultPage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	pages := NewPageStore(db)
	created := createTestSite(t, db, "defaults", time.Now())

	extra, _, err := pages.Create(ctx,
		models.Page{SiteID: created.Site.ID, Title: "Pricing", Slug: "pricing", URL: "https://x.example/pricing"},
		models.Version{WebCover: "pricing.png"}, nil)
	if err != nil {
		t.Fatalf("Create page: %v", err)
	}
	if extra.IsDefault {
		t.Error("additional pages must not be default")
	}

	page, count, err := pages.DefaultPage(ctx, created.Site.ID)
	if err != nil {
		t.Fatalf("DefaultPage: %v", err)
	}
	if page.ID != created.Page.ID || count != 1 {
		t.Errorf("default page: got %s (count %d), want %s (count 1)", page.ID, count, created.Page.ID)
	}

	// Two defaults: the lowest id wins and the anomaly is visible.
	if _, err := db.Exec(`UPDATE pages SET is_default = TRUE WHERE id = $1`, extra.ID); err != nil {
		t.Fatalf("force second default: %v", err)
	}
	page, count, err = pages.DefaultPage(ctx, created.Site.ID)
	if err != nil {
		t.Fatalf("DefaultPage: %v", err)
	}
	want := created.Page.ID
	if extra.ID.String() < want.String() {
		want = extra.ID
	}
	if count != 2 || page.ID != want {
		t.Errorf("anomaly: got %s (count %d), want %s (count 2)", page.ID, count, want)
	}

	if err := pages.SetDefault(ctx, created.Site.ID, extra.ID); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	page, count, _ = pages.DefaultPage(ctx, created.Site.ID)
	if page.ID != extra.ID || count != 1 {
		t.Errorf("after SetDefault: got %s (count %d)", page.ID, count)
	}
}

func TestPageStoreSoftDeleteKeepsDefault(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	pages := NewPageStore(db)
	created := createTestSite(t, db, "pagedelete", time.Now())

	if err := pages.SoftDelete(ctx, created.Page.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("deleting the only default page: expected ErrConflict, got %v", err)
	}

	extra, _, err := pages.Create(ctx,
		models.Page{SiteID: created.Site.ID, Title: "About", Slug: "about", URL: "https://x.example/about"},
		models.Version{WebCover: "about.png"}, nil)
	if err != nil {
		t.Fatalf("Create page: %v", err)
	}
	if err := pages.SoftDelete(ctx, extra.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if p, _ := pages.FindByID(ctx, extra.ID); p != nil {
		t.Error("deleted page still visible")
	}

	_, _, err = pages.Create(ctx,
		models.Page{SiteID: uuid.New(), Title: "Ghost", Slug: "ghost", URL: "https://ghost.example"},
		models.Version{WebCover: "ghost.png"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("page on unknown site: expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeletedSiteHidesPagesAndVersions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	pages := NewPageStore(db)
	versions := NewVersionStore(db)
	likes := NewLikeStore(db)
	created := createTestSite(t, db, "deletedsite", time.Now())
	user := uuid.New()

	if liked, err := likes.Toggle(ctx, created.Version.ID, user); err != nil || !liked {
		t.Fatalf("toggle before delete: got %v, %v", liked, err)
	}
	if err := NewSiteStore(db).SoftDelete(ctx, created.Site.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if p, err := pages.FindByID(ctx, created.Page.ID); err != nil || p != nil {
		t.Errorf("page of deleted site: got %+v, %v; want nil", p, err)
	}
	if v, err := versions.FindByID(ctx, created.Version.ID); err != nil || v != nil {
		t.Errorf("version of deleted site: got %+v, %v; want nil", v, err)
	}
	if _, err := likes.Toggle(ctx, created.Version.ID, user); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle on deleted site: expected ErrNotFound, got %v", err)
	}
	if _, err := likes.Toggle(ctx, created.Version.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("new like on deleted site: expected ErrNotFound, got %v", err)
	}
}

func TestDeletedPageHidesVersions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	pages := NewPageStore(db)
	created := createTestSite(t, db, "deletedpage", time.Now())

	extra, version, err := pages.Create(ctx,
		models.Page{SiteID: created.Site.ID, Title: "Pricing", Slug: "pricing", URL: "https://x.example/pricing"},
		models.Version{WebCover: "pricing.png"}, nil)
	if err != nil {
		t.Fatalf("Create page: %v", err)
	}
	if err := pages.SoftDelete(ctx, extra.ID); err != nil {
		t.Fatalf("SoftDelete page: %v", err)
	}

	if v, _ := NewVersionStore(db).FindByID(ctx, version.ID); v != nil {
		t.Error("version of deleted page still visible")
	}
	if _, err := NewLikeStore(db).Toggle(ctx, version.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle on deleted page: expected ErrNotFound, got %v", err)
	}
	if p, _ := pages.FindByID(ctx, created.Page.ID); p == nil {
		t.Error("live page of the same site must stay visible")
	}
}
