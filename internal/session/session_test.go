package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/livelog/internal/livelog"
)

type fakeClient struct {
	mu            sync.Mutex
	tails         map[string][]livelog.LogLine
	gate          map[string]chan struct{} // blocks FetchTail for a file until closed
	entered       chan string
	groupings     []livelog.Grouping
	groupCalls    int
	groupErr      error
	groupGate     chan struct{} // blocks FetchGroupings until closed
	resets        int
	resetErr      error
	resetGate     chan struct{} // blocks ResetGroupings until closed
	files         []string
	filter        string
	analytics     []livelog.AnalyticsEntry
	analyticErr   error
	analyticsGate chan struct{} // blocks FetchAnalytics until closed
	calls         chan string   // receives call events when set
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		tails:   map[string][]livelog.LogLine{},
		gate:    map[string]chan struct{}{},
		entered: make(chan string, 16),
	}
}

func (c *fakeClient) FetchTail(ctx context.Context, q livelog.TailQuery) ([]livelog.LogLine, error) {
	c.mu.Lock()
	gate := c.gate[q.File]
	c.mu.Unlock()
	if gate != nil {
		c.entered <- q.File
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []livelog.LogLine
	for _, l := range c.tails[q.File] {
		if q.From == nil || l.Line >= *q.From {
			out = append(out, l)
		}
	}
	return out, nil
}

func (c *fakeClient) FetchGroupings(context.Context) ([]livelog.Grouping, error) {
	c.mu.Lock()
	c.groupCalls++
	gate := c.groupGate
	c.mu.Unlock()
	c.event("groupings")
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupings, c.groupErr
}

func (c *fakeClient) FetchFileList(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files, nil
}

func (c *fakeClient) FetchDefaultFilter(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter, nil
}

func (c *fakeClient) ResetGroupings(context.Context) error {
	c.mu.Lock()
	c.resets++
	gate := c.resetGate
	c.mu.Unlock()
	c.event("reset:start")
	if gate != nil {
		<-gate
	}
	c.event("reset:done")

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetErr
}

func (c *fakeClient) FetchAnalytics(_ context.Context, file string) ([]livelog.AnalyticsEntry, error) {
	c.mu.Lock()
	gate := c.analyticsGate
	c.mu.Unlock()
	c.event("analytics:" + file)
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analytics, c.analyticErr
}

func (c *fakeClient) event(name string) {
	if c.calls != nil {
		c.calls <- name
	}
}

func (c *fakeClient) DownloadURL(file string) string {
	return "http://server/api/download?f=" + file
}

func (c *fakeClient) groupingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupCalls
}

func waitForCall(t *testing.T, calls <-chan string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-calls:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %s call", want)
		}
	}
}

func newTestSession(c *fakeClient, interval time.Duration) *Session {
	logger := zerolog.Nop()
	return New(c, Options{PollInterval: interval, Logger: &logger})
}

func runSession(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestSession_OpenTailsAndClassifies(t *testing.T) {
	c := newFakeClient()
	c.tails["app.log"] = []livelog.LogLine{{Line: 0, Content: "ERROR: x"}, {Line: 1, Content: "info"}}
	c.groupings = []livelog.Grouping{{Regex: "ERROR", Color: "red"}, {Regex: ".*", Color: "black"}}

	s := newTestSession(c, 10*time.Millisecond)
	runSession(t, s)

	require.NoError(t, s.Open(context.Background(), "app.log"))
	assert.Equal(t, "app.log", s.Selected())

	require.Eventually(t, func() bool {
		lines := s.Lines()
		return len(lines) == 2 && lines[0].Styled && lines[1].Styled
	}, 2*time.Second, 5*time.Millisecond)

	lines := s.Lines()
	assert.Equal(t, "red", lines[0].Style.Color)
	assert.Equal(t, "black", lines[1].Style.Color)

	// A quiet file does not trigger further grouping refreshes.
	calls := c.groupingCalls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, c.groupingCalls())

	snap := s.Snapshot()
	assert.Equal(t, int64(1), snap.Cursor)
	assert.True(t, snap.Polling)
}

func TestSession_SwitchDiscardsLateResult(t *testing.T) {
	c := newFakeClient()
	c.tails["a.log"] = []livelog.LogLine{{Line: 0, Content: "from a"}}
	c.tails["b.log"] = []livelog.LogLine{{Line: 0, Content: "from b"}}
	gateA := make(chan struct{})
	c.gate["a.log"] = gateA
	c.groupings = []livelog.Grouping{{Regex: ".*", Color: "green"}}

	s := newTestSession(c, 10*time.Millisecond)
	runSession(t, s)

	require.NoError(t, s.Open(context.Background(), "a.log"))
	require.Equal(t, "a.log", <-c.entered)

	// Switch while a.log's fetch is outstanding, then let it finish.
	require.NoError(t, s.Open(context.Background(), "b.log"))
	close(gateA)

	require.Eventually(t, func() bool {
		return len(s.Lines()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	snap := s.Snapshot()
	assert.Equal(t, "b.log", snap.File)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "from b", snap.Lines[0].Content)
	assert.Equal(t, 1, snap.Total)

	c.mu.Lock()
	assert.Equal(t, 2, c.resets)
	c.mu.Unlock()
}

func TestSession_NoGroupingFetchWhileResetOutstanding(t *testing.T) {
	c := newFakeClient()
	c.tails["a.log"] = []livelog.LogLine{{Line: 0, Content: "from a"}}
	c.groupings = []livelog.Grouping{{Regex: "from", Color: "red"}}
	c.groupErr = errors.New("status 503")
	groupGate := make(chan struct{})
	c.groupGate = groupGate
	c.calls = make(chan string, 64)

	s := newTestSession(c, 5*time.Millisecond)
	runSession(t, s)

	require.NoError(t, s.Open(context.Background(), "a.log"))
	require.Equal(t, "reset:start", <-c.calls)
	require.Equal(t, "reset:done", <-c.calls)
	require.Equal(t, "groupings", <-c.calls)

	resetGate := make(chan struct{})
	c.mu.Lock()
	c.resetGate = resetGate
	c.mu.Unlock()

	opened := make(chan error, 1)
	go func() { opened <- s.Open(context.Background(), "b.log") }()
	require.Equal(t, "reset:start", <-c.calls)

	// a.log's refresh fails while b.log's reset is outstanding. Nothing
	// may be fetched until that reset is done.
	close(groupGate)
	select {
	case got := <-c.calls:
		t.Fatalf("unexpected %s call before the reset completed", got)
	case <-time.After(60 * time.Millisecond):
	}
	assert.Empty(t, s.Groupings())

	close(resetGate)
	require.NoError(t, <-opened)
	assert.Equal(t, "reset:done", <-c.calls)
	assert.Equal(t, "b.log", s.Selected())
}

func TestSession_OpenClearsPreviousState(t *testing.T) {
	c := newFakeClient()
	c.tails["a.log"] = []livelog.LogLine{{Line: 0, Content: "a"}, {Line: 1, Content: "b"}}
	c.groupings = []livelog.Grouping{{Regex: "a", Color: "red"}}

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))
	require.NoError(t, s.PollNow(context.Background()))
	require.Len(t, s.Lines(), 2)

	require.NoError(t, s.Open(context.Background(), "empty.log"))
	snap := s.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.False(t, snap.HasCursor)
	assert.Empty(t, s.Groupings())
}

func TestSession_OpenReturnsResetFailureButPolls(t *testing.T) {
	c := newFakeClient()
	c.resetErr = errors.New("status 500")
	c.tails["a.log"] = []livelog.LogLine{{Line: 0, Content: "x"}}

	s := newTestSession(c, time.Hour)
	err := s.Open(context.Background(), "a.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset groupings for a.log")

	require.NoError(t, s.PollNow(context.Background()))
	assert.Len(t, s.Lines(), 1)
}

func TestSession_OpenRequiresFile(t *testing.T) {
	s := newTestSession(newFakeClient(), time.Hour)
	assert.ErrorIs(t, s.Open(context.Background(), ""), ErrNoSelection)
	_, err := s.DownloadURL()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.ErrorIs(t, s.OpenAnalytics(context.Background()), ErrNoSelection)
}

func TestSession_ContentFilter(t *testing.T) {
	c := newFakeClient()
	c.tails["a.log"] = []livelog.LogLine{
		{Line: 7, Content: "starting"},
		{Line: 8, Content: "ERROR disk"},
		{Line: 42, Content: "done"},
	}

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))
	require.NoError(t, s.PollNow(context.Background()))

	s.SetContentFilter("ERROR")
	got := s.Lines()
	require.Len(t, got, 1)
	assert.Equal(t, int64(8), got[0].Line)

	s.SetContentFilter("^42$")
	got = s.Lines()
	require.Len(t, got, 1)
	assert.Equal(t, "done", got[0].Content)

	s.SetContentFilter("[")
	assert.Empty(t, s.Lines())
	assert.Equal(t, 3, s.Snapshot().Total)

	s.SetContentFilter("")
	assert.Len(t, s.Lines(), 3)
}

func TestSession_LoadFilesAdoptsDefaultFilter(t *testing.T) {
	c := newFakeClient()
	c.files = []string{"app.log", "app.log.1.gz", "db.log"}
	c.filter = `\.log$`

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.LoadFiles(context.Background()))
	assert.Equal(t, `\.log$`, s.ListFilter())
	assert.Equal(t, []string{"app.log", "db.log"}, s.VisibleFiles())
	assert.Len(t, s.Files(), 3)

	s.SetListFilter("^db")
	assert.Equal(t, []string{"db.log"}, s.VisibleFiles())

	// A user filter survives reloads.
	require.NoError(t, s.LoadFiles(context.Background()))
	assert.Equal(t, "^db", s.ListFilter())

	s.SetListFilter("(")
	assert.Empty(t, s.VisibleFiles())
}

func TestSession_AnalyticsPausesPolling(t *testing.T) {
	c := newFakeClient()
	c.analytics = []livelog.AnalyticsEntry{
		{Pattern: "ERROR", Color: "red", Count: 3},
		{Pattern: "WARN", Color: "yellow", Count: 1},
	}

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))

	require.NoError(t, s.OpenAnalytics(context.Background()))
	assert.True(t, s.AnalyticsOpen())
	assert.False(t, s.PollingEnabled())
	assert.Len(t, s.VisibleAnalytics(), 2)

	s.SetContentFilter("WARN")
	got := s.VisibleAnalytics()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Count)

	s.CloseAnalytics()
	assert.False(t, s.AnalyticsOpen())
	assert.True(t, s.PollingEnabled())
	assert.Empty(t, s.VisibleAnalytics())
}

func TestSession_AnalyticsFailureResumesPolling(t *testing.T) {
	c := newFakeClient()
	c.analyticErr = errors.New("timeout")

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))

	err := s.OpenAnalytics(context.Background())
	require.Error(t, err)
	assert.False(t, s.AnalyticsOpen())
	assert.True(t, s.PollingEnabled())
}

func TestSession_AnalyticsForPreviousFileDropped(t *testing.T) {
	c := newFakeClient()
	c.analytics = []livelog.AnalyticsEntry{{Pattern: "ERROR", Color: "red", Count: 3}}
	gate := make(chan struct{})
	c.analyticsGate = gate
	c.calls = make(chan string, 64)

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))

	done := make(chan error, 1)
	go func() { done <- s.OpenAnalytics(context.Background()) }()
	waitForCall(t, c.calls, "analytics:a.log")

	require.NoError(t, s.Open(context.Background(), "b.log"))
	close(gate)

	assert.ErrorIs(t, <-done, ErrSelectionChanged)
	assert.Equal(t, "b.log", s.Selected())
	assert.False(t, s.AnalyticsOpen())
	assert.Empty(t, s.VisibleAnalytics())
	assert.True(t, s.PollingEnabled())
}

func TestSession_OpenClosesAnalytics(t *testing.T) {
	c := newFakeClient()
	c.analytics = []livelog.AnalyticsEntry{{Pattern: "ERROR", Color: "red", Count: 3}}

	s := newTestSession(c, time.Hour)
	require.NoError(t, s.Open(context.Background(), "a.log"))
	require.NoError(t, s.OpenAnalytics(context.Background()))
	require.False(t, s.PollingEnabled())

	require.NoError(t, s.Open(context.Background(), "b.log"))
	assert.False(t, s.AnalyticsOpen())
	assert.Empty(t, s.VisibleAnalytics())
	assert.True(t, s.PollingEnabled())
}

func TestSession_DownloadURLAndIdentity(t *testing.T) {
	c := newFakeClient()
	s := newTestSession(c, time.Hour)
	other := newTestSession(c, time.Hour)
	assert.NotEqual(t, s.ID(), other.ID())

	require.NoError(t, s.Open(context.Background(), "a.log"))
	url, err := s.DownloadURL()
	require.NoError(t, err)
	assert.Equal(t, "http://server/api/download?f=a.log", url)
	assert.Empty(t, other.Selected())
}

func TestSession_VersionChanges(t *testing.T) {
	s := newTestSession(newFakeClient(), time.Hour)
	v := s.Version()
	s.SetContentFilter("x")
	assert.Greater(t, s.Version(), v)
}
