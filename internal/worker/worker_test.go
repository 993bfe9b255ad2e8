package worker_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"domainscan/internal/classifier"
	"domainscan/internal/config"
	"domainscan/internal/scanner"
	"domainscan/internal/worker"
	"domainscan/pkg/domain"
	mockfetcher "domainscan/pkg/fetcher/mock"
	"domainscan/pkg/logger"
	mockstorage "domainscan/pkg/storage/mock"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	_ = logger.Setup(logger.DevelopmentEnvironment, "")
	m.Run()
}

const moonPage = `<div class="domain-card"><div class="domain-slug">alice</div>` +
	`<div class="domain-ending">.moon</div><button class="add-to-cart">Sold</button></div>`

var partnerList = []domain.Partner{ //nolint: gochecknoglobals
	{URL: "https://get.example.com/moon/", Launched: true},
	{URL: "https://get.example.com/eth/", Launched: true},
}

type deps struct {
	fetcher *mockfetcher.MockFetcher
	session *mockfetcher.MockSession
	storage *mockstorage.MockRunStorage
}

func newWorker(t *testing.T, list []domain.Partner) (*deps, *worker.ScanWorker) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := &deps{
		fetcher: mockfetcher.NewMockFetcher(ctrl),
		session: mockfetcher.NewMockSession(ctrl),
		storage: mockstorage.NewMockRunStorage(ctrl),
	}

	v, err := classifier.DefaultVocabulary()
	require.NoError(t, err)
	s := scanner.New(d.fetcher, classifier.New(v), nil, scanner.Options{TimeoutPerPage: time.Second})

	return d, worker.NewScanWorker(s, list, d.storage, time.Minute)
}

func makeJob(id int64) *river.Job[worker.ScanJobArgs] {
	return &river.Job[worker.ScanJobArgs]{
		JobRow: &rivertype.JobRow{ID: id},
		Args:   worker.NewScanJobArgs("test", 3),
	}
}

func TestScanWorker_Work_StoresRun(t *testing.T) {
	d, w := newWorker(t, partnerList)

	d.fetcher.EXPECT().Open(gomock.Any()).Return(d.session, nil)
	d.session.EXPECT().Close().Return(nil)
	d.session.EXPECT().Fetch(gomock.Any(), "https://get.example.com/moon").Return(moonPage, nil)
	d.session.EXPECT().Fetch(gomock.Any(), "https://get.example.com/eth").Return("<html></html>", nil)
	d.storage.EXPECT().StoreScanRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run domain.ScanRun) error {
			require.Len(t, run.Results, 2)
			require.Equal(t, 1, run.Summary.TotalSold)
			require.Equal(t, 1, run.Summary.HighPriority)

			return nil
		})

	require.NoError(t, w.Work(context.Background(), makeJob(1)))
}

func TestScanWorker_Work_SessionUnavailableRetries(t *testing.T) {
	d, w := newWorker(t, partnerList)
	d.fetcher.EXPECT().Open(gomock.Any()).Return(nil, errors.New("no browser"))

	err := w.Work(context.Background(), makeJob(2))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.False(t, errors.As(err, &cancelErr))
}

func TestScanWorker_Work_InvalidPartnerIsStored(t *testing.T) {
	d, w := newWorker(t, []domain.Partner{{URL: "moon", Launched: true}, partnerList[0]})

	d.fetcher.EXPECT().Open(gomock.Any()).Return(d.session, nil)
	d.session.EXPECT().Close().Return(nil)
	d.session.EXPECT().Fetch(gomock.Any(), "https://get.example.com/moon").Return(moonPage, nil)
	d.storage.EXPECT().StoreScanRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run domain.ScanRun) error {
			require.Len(t, run.Results, 2)
			require.Equal(t, "moon", run.Results[0].URL)
			require.True(t, strings.HasPrefix(run.Results[0].FetchError, "BAD_REQUEST"), run.Results[0].FetchError)
			require.Equal(t, 1, run.Summary.FailedScans)

			return nil
		})

	require.NoError(t, w.Work(context.Background(), makeJob(3)))
}

func TestScanWorker_Work_StoreFailure(t *testing.T) {
	d, w := newWorker(t, partnerList[:1])

	d.fetcher.EXPECT().Open(gomock.Any()).Return(d.session, nil)
	d.session.EXPECT().Close().Return(nil)
	d.session.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(moonPage, nil)
	d.storage.EXPECT().StoreScanRun(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	require.Error(t, w.Work(context.Background(), makeJob(4)))
}

func TestScanJobArgs_InsertOpts(t *testing.T) {
	args := worker.NewScanJobArgs("api", 5)
	require.Equal(t, "scan_partners", args.Kind())

	opts := args.InsertOpts()
	require.Equal(t, 5, opts.MaxAttempts)
	require.Contains(t, opts.UniqueOpts.ByState, rivertype.JobStateRunning)
	require.NotContains(t, opts.UniqueOpts.ByState, rivertype.JobStateCompleted)
}

func TestPeriodicJobs(t *testing.T) {
	require.Empty(t, worker.PeriodicJobs(worker.Options{}))
	require.Len(t, worker.PeriodicJobs(worker.Options{Interval: time.Hour, MaxAttempts: 2}), 1)
}

func TestNewOptions_DisablePeriodic(t *testing.T) {
	var cfg config.Config
	cfg.Worker.Interval = time.Hour
	cfg.Worker.MaxAttempts = 2

	opts := worker.NewOptions(&cfg)
	require.Equal(t, time.Hour, opts.Interval)
	require.Equal(t, 2, opts.MaxAttempts)

	cfg.Worker.DisablePeriodic = true
	require.Zero(t, worker.NewOptions(&cfg).Interval)
}
