// Package workspace maps browser session ids to the client state of that
// browser: session, resource stores, enrollment wizard and lookups.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/matrific/matrific-web/internal/service"
	"github.com/matrific/matrific-web/internal/store"
	"github.com/matrific/matrific-web/internal/wizard"
	"github.com/matrific/matrific-web/pkg/casing"
	"github.com/matrific/matrific-web/pkg/debounce"
)

// Workspace is the state owned by one browser.
type Workspace struct {
	ID string

	Session     *store.SessionStore
	Courses     *store.CourseStore
	Enrollments *store.EnrollmentStore
	Students    *store.StudentStore
	Professors  *store.ProfessorStore
	Dashboard   *store.DashboardStore
	Wizard      *wizard.Wizard
	Localities  *service.LocalityService

	cities *debounce.Debouncer[casing.Value]

	restoreMu sync.Mutex
	restored  bool

	mu       sync.Mutex
	lastSeen time.Time
}

// SearchCities runs a debounced municipality search. Only the most recent
// call reaches the API; earlier callers get debounce.ErrSuperseded, and a
// result that arrives after a newer search started is dropped with
// debounce.ErrStale.
func (w *Workspace) SearchCities(ctx context.Context, stateID int, search string) (casing.Value, error) {
	return w.cities.Do(ctx, func(ctx context.Context) (casing.Value, error) {
		return w.Localities.Cities(ctx, stateID, search)
	})
}

// LastSeen reports when the workspace was last used.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// restore loads the persisted session once. A failed attempt is retried on
// the next request.
func (w *Workspace) restore(ctx context.Context) error {
	w.restoreMu.Lock()
	defer w.restoreMu.Unlock()
	if w.restored {
		return nil
	}
	if err := w.Session.Restore(ctx); err != nil {
		return err
	}
	w.restored = true
	return nil
}
