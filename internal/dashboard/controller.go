package dashboard

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/auth"
	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

// State is the controller's position in the dashboard lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateNoData
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateNoData:
		return "no_data"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

const (
	EmptyMessage     = "No data available. Add your first shift!"
	FetchFailMessage = "Your shifts could not be loaded. Please try again later."
)

var (
	// ErrNotLoaded is returned by operations that need a loaded dashboard.
	ErrNotLoaded = errors.New("dashboard has no records loaded")
	// ErrNotSignedIn is returned by operations that need a session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrSuperseded reports that a fetch finished after the session changed
	// and its result was dropped.
	ErrSuperseded = errors.New("result superseded by a newer session change")
)

// SessionResolver looks up the signed-in user. (nil, nil) means nobody is
// signed in.
type SessionResolver func(ctx context.Context) (*auth.Session, error)

// Controller holds the state of one dashboard view. The mutex is never held
// across a store call; gen changes on every session change so that late
// fetch results can be recognised and dropped.
type Controller struct {
	repo      store.ShiftRepository
	presenter Presenter

	mu        sync.Mutex
	gen       uint64
	state     State
	session   *auth.Session
	records   []shifts.Record
	criteria  shifts.Criteria
	userRange bool
	mode      ChartMode
	message   string
}

func New(repo store.ShiftRepository, presenter Presenter) *Controller {
	return &Controller{
		repo:      repo,
		presenter: presenter,
		state:     StateUnauthenticated,
		mode:      ChartTipsOverTime,
	}
}

// Start resolves the session and loads the owner's records. A fetch failure
// leaves the controller in StateNoData and is returned.
func (c *Controller) Start(ctx context.Context, resolve SessionResolver) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateAuthenticating
	c.session = nil
	c.records = nil
	c.mu.Unlock()

	session, err := resolve(ctx)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil || session == nil {
		c.state = StateUnauthenticated
		c.mu.Unlock()
		return err
	}
	c.session = session
	c.mu.Unlock()

	return c.load(ctx, gen, session.UserID, false)
}

// load fetches the owner's records and renders them. keepRange keeps a range
// the user picked; a default range is recomputed from the new records.
func (c *Controller) load(ctx context.Context, gen uint64, ownerID int64, keepRange bool) error {
	records, err := c.repo.ListByOwner(ctx, ownerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}

	if err != nil {
		c.state = StateNoData
		c.records = nil
		c.message = FetchFailMessage
		if rerr := c.presenter.RenderEmptyState(c.message); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	if len(records) == 0 {
		c.state = StateNoData
		c.records = nil
		c.message = EmptyMessage
		return c.presenter.RenderEmptyState(c.message)
	}

	c.state = StateLoaded
	c.records = records
	c.message = ""
	if !keepRange || !c.userRange {
		c.criteria, _ = shifts.DefaultCriteria(records)
		c.userRange = false
	}
	return c.renderLocked()
}

func (c *Controller) renderLocked() error {
	result := shifts.Filter(c.records, c.criteria)

	chart := make([]shifts.Record, len(result.Records))
	copy(chart, result.Records)
	shifts.SortByDate(chart)

	if err := c.presenter.RenderChart(c.mode, chart); err != nil {
		return err
	}
	if err := c.presenter.RenderTable(result.Records); err != nil {
		return err
	}
	return c.presenter.RenderMetrics(result.Metrics)
}

// ApplyFilter replaces the date range and redraws.
func (c *Controller) ApplyFilter(criteria shifts.Criteria) error {
	if criteria.Category == "" {
		criteria.Category = shifts.CategoryAll
	}
	if err := criteria.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	c.criteria = criteria
	c.userRange = true
	return c.renderLocked()
}

// SetChartMode switches the chart and redraws.
func (c *Controller) SetChartMode(mode string) error {
	m, err := ParseChartMode(mode)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	c.mode = m
	return c.renderLocked()
}

// SaveShift validates and stores a new shift, then re-fetches and redraws.
// Invalid input returns a *shifts.ValidationError without touching the
// store. A failed insert leaves the current view unchanged.
func (c *Controller) SaveShift(ctx context.Context, input shifts.DraftInput) (*shifts.Record, error) {
	c.mu.Lock()
	session, gen := c.session, c.gen
	c.mu.Unlock()
	if session == nil {
		return nil, ErrNotSignedIn
	}

	draft, err := input.Validate(session.UserID)
	if err != nil {
		return nil, err
	}
	rec, err := c.repo.Insert(ctx, draft)
	if err != nil {
		return nil, err
	}
	metrics.ShiftCreated("form")
	zap.L().Info("shift saved", zap.Int64("user_id", session.UserID), zap.String("shift_id", rec.ID))

	if err := c.load(ctx, gen, session.UserID, true); err != nil {
		return rec, err
	}
	return rec, nil
}

// SignOut forgets the session and every loaded record. Fetches still in
// flight are dropped when they finish.
func (c *Controller) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = StateUnauthenticated
	c.session = nil
	c.records = nil
	c.criteria = shifts.Criteria{}
	c.userRange = false
	c.mode = ChartTipsOverTime
	c.message = ""
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Session() *auth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Criteria() shifts.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

func (c *Controller) ChartMode() ChartMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Message is the empty-state text shown in StateNoData.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Records returns a copy of every loaded record, or nil when none are
// loaded.
func (c *Controller) Records() []shifts.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records == nil {
		return nil
	}
	out := make([]shifts.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Result is the current filtered view.
func (c *Controller) Result() shifts.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoaded {
		return shifts.Result{}
	}
	return shifts.Filter(c.records, c.criteria)
}
