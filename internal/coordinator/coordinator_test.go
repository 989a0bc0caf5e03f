package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"vidgate/entity"

	"github.com/google/uuid"
)

type fakeMembers struct {
	mu     sync.Mutex
	status map[int64]entity.MemberStatus
	fail   map[int64]error
	calls  int
}

func (f *fakeMembers) IsChannelMember(_ context.Context, channelId int64, _ int64) (entity.MemberStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[channelId]; ok {
		return entity.StatusOther, err
	}
	if status, ok := f.status[channelId]; ok {
		return status, nil
	}
	return entity.StatusMember, nil
}

type fakeFetcher struct {
	dir   string
	size  int64
	err   error
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string, _ int) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, uuid.NewString()+".mp4")
	if err := os.WriteFile(path, make([]byte, f.size), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func testConfig() Config {
	return Config{
		MaxConcurrent: 2,
		DailyLimit:    5,
		CacheTTL:      300 * time.Second,
		TokenTTL:      time.Minute,
		FetchTimeout:  time.Minute,
		MaxFileSize:   1 << 20,
		Channels:      []entity.Channel{{Id: -100, Tag: "news"}},
	}
}

func newTestCoordinator(t *testing.T, conf Config, members MembershipChecker, fetcher Fetcher) *Coordinator {
	t.Helper()
	return New(conf, members, fetcher, nil, testLogger())
}

func TestSubmitAndDownload(t *testing.T) {
	members := &fakeMembers{}
	fetcher := &fakeFetcher{dir: t.TempDir(), size: 1024}
	core := newTestCoordinator(t, testConfig(), members, fetcher)

	token, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result, err := core.Download(context.Background(), 1, token, 720)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer result.Discard()

	if result.Url != "https://example.com/v" {
		t.Fatalf("result carries wrong url %q", result.Url)
	}
	if result.Size != 1024 {
		t.Fatalf("expected size 1024, got %d", result.Size)
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Fatalf("result file missing: %v", err)
	}

	result.Discard()
	if _, err := os.Stat(result.Path); !os.IsNotExist(err) {
		t.Fatal("Discard left the file behind")
	}

	if remaining := core.Remaining(1); remaining != 4 {
		t.Fatalf("expected remaining 4 after one download, got %d", remaining)
	}
}

func TestDownloadUnknownToken(t *testing.T) {
	core := newTestCoordinator(t, testConfig(), &fakeMembers{}, &fakeFetcher{dir: t.TempDir()})

	_, err := core.Download(context.Background(), 1, "stale", 720)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestGateFailClosed(t *testing.T) {
	conf := testConfig()
	conf.Channels = []entity.Channel{
		{Id: -100, Tag: "one"},
		{Id: -200, Tag: "two"},
		{Id: -300, Tag: "three"},
	}
	members := &fakeMembers{
		fail: map[int64]error{-200: errors.New("chat not found")},
	}
	core := newTestCoordinator(t, conf, members, &fakeFetcher{dir: t.TempDir()})

	if core.Allowed(context.Background(), 1) {
		t.Fatal("a failing channel query must deny the gate")
	}

	_, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if !errors.Is(err, ErrGateDenied) {
		t.Fatalf("expected ErrGateDenied, got %v", err)
	}
}

func TestGateNonMemberDenied(t *testing.T) {
	members := &fakeMembers{
		status: map[int64]entity.MemberStatus{-100: entity.StatusOther},
	}
	core := newTestCoordinator(t, testConfig(), members, &fakeFetcher{dir: t.TempDir()})

	if core.Allowed(context.Background(), 1) {
		t.Fatal("non-member must be denied")
	}
}

func TestGateVerdictCached(t *testing.T) {
	members := &fakeMembers{}
	core := newTestCoordinator(t, testConfig(), members, &fakeFetcher{dir: t.TempDir()})

	core.Allowed(context.Background(), 1)
	core.Allowed(context.Background(), 1)

	members.mu.Lock()
	calls := members.calls
	members.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single gateway call for two checks, got %d", calls)
	}
}

func TestRefreshBypassesCachedDenial(t *testing.T) {
	members := &fakeMembers{
		status: map[int64]entity.MemberStatus{-100: entity.StatusOther},
	}
	core := newTestCoordinator(t, testConfig(), members, &fakeFetcher{dir: t.TempDir()})

	if core.Allowed(context.Background(), 1) {
		t.Fatal("expected a denial before subscribing")
	}

	// The user joins the channel; a plain check still serves the cached denial,
	// Refresh goes back to the gateway.
	members.mu.Lock()
	members.status[-100] = entity.StatusMember
	members.mu.Unlock()

	if core.Allowed(context.Background(), 1) {
		t.Fatal("cached denial should still be served")
	}
	if !core.Refresh(context.Background(), 1) {
		t.Fatal("Refresh must bypass the cached denial")
	}
	if !core.Allowed(context.Background(), 1) {
		t.Fatal("the refreshed verdict should now be cached")
	}
}

func TestDownloadQuotaExceeded(t *testing.T) {
	conf := testConfig()
	conf.DailyLimit = 1
	fetcher := &fakeFetcher{dir: t.TempDir(), size: 10}
	core := newTestCoordinator(t, conf, &fakeMembers{}, fetcher)

	token, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	result, err := core.Download(context.Background(), 1, token, 720)
	if err != nil {
		t.Fatalf("first Download: %v", err)
	}
	result.Discard()

	_, err = core.Download(context.Background(), 1, token, 720)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestFetchFailureKeepsQuotaCharge(t *testing.T) {
	fetcher := &fakeFetcher{dir: t.TempDir(), err: errors.New("extractor broke")}
	core := newTestCoordinator(t, testConfig(), &fakeMembers{}, fetcher)

	token, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = core.Download(context.Background(), 1, token, 720)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}

	// Quota was charged at admission and stays charged on failure.
	if remaining := core.Remaining(1); remaining != 4 {
		t.Fatalf("expected remaining 4 after a failed fetch, got %d", remaining)
	}
	// The slot must be free again.
	if load := core.LoadSnapshot(); load.Active != 0 {
		t.Fatalf("slot leaked: active=%d", load.Active)
	}
}

func TestDownloadOversizeRemoved(t *testing.T) {
	conf := testConfig()
	conf.MaxFileSize = 100
	fetcher := &fakeFetcher{dir: t.TempDir(), size: 200}
	core := newTestCoordinator(t, conf, &fakeMembers{}, fetcher)

	token, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = core.Download(context.Background(), 1, token, 720)
	if !errors.Is(err, ErrOversize) {
		t.Fatalf("expected ErrOversize, got %v", err)
	}

	entries, err := os.ReadDir(fetcher.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("oversize file not removed, %d entries left", len(entries))
	}
}

func TestBusyDoesNotConsumeQuota(t *testing.T) {
	conf := testConfig()
	conf.MaxConcurrent = 1
	block := make(chan struct{})
	fetcher := &fakeFetcher{dir: t.TempDir(), size: 10, block: block}
	core := newTestCoordinator(t, conf, &fakeMembers{}, fetcher)

	token, err := core.Submit(context.Background(), 1, "https://example.com/v")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		result, err := core.Download(context.Background(), 1, token, 720)
		if result != nil {
			result.Discard()
		}
		done <- err
	}()
	waitActive(t, core, 1)

	_, err = core.Download(context.Background(), 2, token, 720)
	if !errors.Is(err, ErrSystemBusy) {
		t.Fatalf("expected ErrSystemBusy, got %v", err)
	}
	if remaining := core.Remaining(2); remaining != 5 {
		t.Fatalf("busy rejection charged quota: remaining %d", remaining)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("blocked download failed: %v", err)
	}
}

func TestConcurrentAdmission(t *testing.T) {
	conf := testConfig()
	block := make(chan struct{})
	fetcher := &fakeFetcher{dir: t.TempDir(), size: 10, block: block}
	core := newTestCoordinator(t, conf, &fakeMembers{}, fetcher)

	tokenA, _ := core.Submit(context.Background(), 1, "https://example.com/a")
	tokenB, _ := core.Submit(context.Background(), 2, "https://example.com/b")
	tokenC, _ := core.Submit(context.Background(), 3, "https://example.com/c")

	done := make(chan error, 2)
	start := func(userId int64, token string) {
		result, err := core.Download(context.Background(), userId, token, 720)
		if result != nil {
			result.Discard()
		}
		done <- err
	}
	go start(1, tokenA)
	go start(2, tokenB)
	waitActive(t, core, 2)

	// Both slots are held, the third request is turned away immediately.
	_, err := core.Download(context.Background(), 3, tokenC, 720)
	if !errors.Is(err, ErrSystemBusy) {
		t.Fatalf("expected ErrSystemBusy with both slots held, got %v", err)
	}

	close(block)
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("held download failed: %v", err)
		}
	}
	waitActive(t, core, 0)

	// With a slot free the retry goes through.
	result, err := core.Download(context.Background(), 3, tokenC, 720)
	if err != nil {
		t.Fatalf("retry after release failed: %v", err)
	}
	result.Discard()
}

func waitActive(t *testing.T, core *Coordinator, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if core.LoadSnapshot().Active == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("active slots never reached %d", want)
}
