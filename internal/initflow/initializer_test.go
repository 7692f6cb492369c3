package initflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dojo-starter/internal/dependencies/mocks"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/testutil"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

type InitializerSuite struct {
	suite.Suite
	chain       *mocks.MockChain
	sync        *mocks.MockDataSync
	tracker     *mocks.MockTracker
	clock       *mocks.MockClock
	wallet      *wallet.Adapter
	account     *wallet.BurnerAccount
	store       *store.Store
	config      Config
	initializer *Initializer
	ctx         context.Context
}

func TestInitializerSuite(t *testing.T) {
	suite.Run(t, new(InitializerSuite))
}

func (s *InitializerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.chain = mocks.NewMockChain()
	s.sync = mocks.NewMockDataSync()
	s.tracker = mocks.NewMockTracker()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.wallet = wallet.NewAdapter(logger)
	s.store = store.New(nil, "", logger)
	s.config = DefaultConfig()
	s.ctx = context.Background()

	account, err := wallet.NewBurnerAccount()
	s.Require().NoError(err)
	s.account = account
	s.wallet.Connect(account)

	s.initializer = s.newInitializer()
}

func (s *InitializerSuite) newInitializer() *Initializer {
	return New(Deps{
		Wallet:       s.wallet,
		Transactions: s.chain,
		Sync:         s.sync,
		Tracker:      s.tracker,
		Store:        s.store,
		Clock:        s.clock,
		Logger:       testutil.NopLogger(),
	}, s.config)
}

func (s *InitializerSuite) player() *model.Player {
	return &model.Player{Owner: s.account.Address(), Health: 100, CreationDay: 19723}
}

// refetchSpawnedOnSecondCall makes the post-settlement refetch find the new player
func (s *InitializerSuite) refetchSpawnedOnSecondCall() {
	s.sync.OnRefetch = func(_ context.Context, call int) error {
		if call == 2 {
			s.store.SetPlayer(s.player())
		}
		return nil
	}
}

func (s *InitializerSuite) TestInitialState() {
	state := s.initializer.State()

	s.False(state.IsInitializing)
	s.False(state.IsLoading)
	s.Empty(state.Error)
	s.False(state.Completed)
	s.Equal(model.StepChecking, state.CurrentStep)
	s.Empty(state.TxHash)
	s.Equal(model.TxStatusNone, state.TxStatus)
	s.True(state.IsConnected)
	s.False(state.PlayerExists)
}

func (s *InitializerSuite) TestExistingPlayer() {
	s.store.SetPlayer(s.player())

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.True(result.PlayerExists)
	s.Empty(result.TransactionHash)
	s.Equal(KindNone, result.Kind)
	s.NotEmpty(result.InvocationID)
	s.Empty(s.chain.SpawnCalls())
	s.Equal(1, s.sync.RefetchCalls())
	s.Equal([]time.Duration{s.config.SettleDelay, s.config.PacingDelay}, s.clock.Sleeps())

	state := s.initializer.State()
	s.Equal(model.StepSuccess, state.CurrentStep)
	s.True(state.Completed)
	s.True(state.PlayerExists)
	s.False(state.IsInitializing)
	s.Equal(model.TxStatusNone, state.TxStatus)
}

func (s *InitializerSuite) TestExistingPlayerFoundByRefetch() {
	s.sync.OnRefetch = func(context.Context, int) error {
		s.store.SetPlayer(s.player())
		return nil
	}

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.True(result.PlayerExists)
	s.Empty(s.chain.SpawnCalls())
}

func (s *InitializerSuite) TestSpawnSuccess() {
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeSuccess, TransactionHash: "0xabc"}}
	s.refetchSpawnedOnSecondCall()

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.False(result.PlayerExists)
	s.Equal("0xabc", result.TransactionHash)
	s.Equal(2, s.sync.RefetchCalls())
	s.Equal([]string{"0xabc"}, s.tracker.Confirmed())
	s.Empty(s.tracker.Reverted())
	s.Equal([]string{s.account.Address()}, s.chain.SpawnCalls())
	s.Equal([]time.Duration{s.config.SettleDelay, s.config.SettlementDelay}, s.clock.Sleeps())

	state := s.initializer.State()
	s.Equal(model.StepSuccess, state.CurrentStep)
	s.Equal(model.TxStatusSuccess, state.TxStatus)
	s.Equal("0xabc", state.TxHash)
	s.True(state.Completed)
	s.False(state.IsInitializing)
	s.Equal(s.player(), s.store.Player())
}

func (s *InitializerSuite) TestSpawnRejected() {
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeRejected, TransactionHash: "0xdead"}}

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.False(result.PlayerExists)
	s.Equal(KindTransactionRejected, result.Kind)
	s.Contains(result.Error, model.TxCodeRejected)
	s.Equal([]string{"0xdead"}, s.tracker.Reverted())
	s.Empty(s.tracker.Confirmed())
	s.Equal(1, s.sync.RefetchCalls())

	state := s.initializer.State()
	s.Equal(model.TxStatusRejected, state.TxStatus)
	s.Equal("0xdead", state.TxHash)
	s.Equal(model.StepChecking, state.CurrentStep)
	s.False(state.IsInitializing)
	s.False(state.Completed)
	s.Equal(result.Error, state.Error)
	s.Equal(result.Error, s.store.Snapshot().Error)
}

func (s *InitializerSuite) TestSpawnAbsentResponse() {
	s.chain.SpawnResponses = []*model.TransactionResponse{nil}

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindTransactionRejected, result.Kind)
	s.Empty(s.tracker.Reverted())

	state := s.initializer.State()
	s.Equal(model.TxStatusRejected, state.TxStatus)
	s.Empty(state.TxHash)
}

func (s *InitializerSuite) TestTransactionHashVisibleBeforeOutcome() {
	var seen State
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeSuccess, TransactionHash: "0xabc"}}
	s.initializer.Subscribe(func(st State) {
		if st.TxHash != "" && seen.TxHash == "" {
			seen = st
		}
	})

	s.initializer.InitializePlayer(s.ctx)

	s.Equal("0xabc", seen.TxHash)
	s.Equal(model.TxStatusPending, seen.TxStatus)
	s.Equal(model.StepSpawning, seen.CurrentStep)
}

func (s *InitializerSuite) TestSpawnSubmissionError() {
	s.chain.SpawnErr = errors.New("rpc unavailable")

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindUnknownFailure, result.Kind)
	s.Equal("rpc unavailable", result.Error)
	s.Empty(s.tracker.Reverted())

	state := s.initializer.State()
	s.Equal(model.StepChecking, state.CurrentStep)
	s.Equal(model.TxStatusPending, state.TxStatus)
}

func (s *InitializerSuite) TestRefetchFailureAfterSpawnRevertsTransaction() {
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeSuccess, TransactionHash: "0xabc"}}
	s.sync.OnRefetch = func(_ context.Context, call int) error {
		if call == 2 {
			return errors.New("indexer down")
		}
		return nil
	}

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindUnknownFailure, result.Kind)
	s.Equal([]string{"0xabc"}, s.tracker.Reverted())
	s.Empty(s.tracker.Confirmed())
	s.Equal(model.TxStatusRejected, s.initializer.State().TxStatus)
}

func (s *InitializerSuite) TestRevertFailureIsNotEscalated() {
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeRejected, TransactionHash: "0xdead"}}
	s.tracker.RevertErr = errors.New("tracker offline")

	result := s.initializer.InitializePlayer(s.ctx)

	s.Equal(KindTransactionRejected, result.Kind)
	s.NotContains(result.Error, "tracker offline")
	s.False(s.initializer.State().IsInitializing)
}

func (s *InitializerSuite) TestFirstRefetchFailure() {
	s.sync.OnRefetch = func(context.Context, int) error { return errors.New("timeout") }

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindUnknownFailure, result.Kind)
	s.Empty(s.chain.SpawnCalls())
	s.Empty(s.clock.Sleeps())
}

func (s *InitializerSuite) TestNotConnected() {
	s.wallet.Disconnect()

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindNotConnected, result.Kind)
	s.Contains(result.Error, "not connected")
	s.Zero(s.sync.RefetchCalls())
	s.Empty(s.chain.SpawnCalls())

	state := s.initializer.State()
	s.Equal(result.Error, state.Error)
	s.Equal(model.StepChecking, state.CurrentStep)
	s.Equal(model.TxStatusNone, state.TxStatus)
	s.False(state.IsInitializing)
	s.False(state.IsConnected)
}

func (s *InitializerSuite) TestConnectingIsNotConnected() {
	s.wallet.Disconnect()
	s.wallet.SetConnecting()

	result := s.initializer.InitializePlayer(s.ctx)

	s.Equal(KindNotConnected, result.Kind)
}

func (s *InitializerSuite) TestNoAccount() {
	s.wallet.Connect(nil)

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindNoAccount, result.Kind)
	s.Zero(s.sync.RefetchCalls())
	s.Empty(s.chain.SpawnCalls())
	s.Equal(result.Error, s.initializer.State().Error)
}

func (s *InitializerSuite) TestRetryAfterFailureWithoutReset() {
	s.chain.SpawnResponses = []*model.TransactionResponse{
		{Code: model.TxCodeRejected, TransactionHash: "0x1"},
		{Code: model.TxCodeSuccess, TransactionHash: "0x2"},
	}
	s.sync.OnRefetch = func(_ context.Context, call int) error {
		if call == 3 {
			s.store.SetPlayer(s.player())
		}
		return nil
	}

	first := s.initializer.InitializePlayer(s.ctx)
	s.False(first.Success)
	s.NotEmpty(s.initializer.State().Error)

	second := s.initializer.InitializePlayer(s.ctx)
	s.True(second.Success)
	s.Equal("0x2", second.TransactionHash)

	state := s.initializer.State()
	s.Empty(state.Error)
	s.Equal(model.TxStatusSuccess, state.TxStatus)
	s.Empty(s.store.Snapshot().Error)
}

// blockFirstRefetch makes the first RefetchPlayer wait until release is closed
func (s *InitializerSuite) blockFirstRefetch() (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	s.sync.OnRefetch = func(_ context.Context, call int) error {
		if call == 1 {
			close(entered)
			<-release
		}
		return nil
	}
	return entered, release
}

func (s *InitializerSuite) TestConcurrentCallIsRejected() {
	entered, release := s.blockFirstRefetch()

	done := make(chan Result)
	go func() { done <- s.initializer.InitializePlayer(s.ctx) }()
	<-entered

	before := s.initializer.State()
	s.True(before.IsInitializing)
	s.True(s.store.Snapshot().Loading)

	second := s.initializer.InitializePlayer(s.ctx)
	s.False(second.Success)
	s.Equal(KindAlreadyInitializing, second.Kind)
	s.Equal(before, s.initializer.State())

	close(release)
	first := <-done
	s.True(first.Success)
	s.Equal([]string{s.account.Address()}, s.chain.SpawnCalls())
	s.False(s.store.Snapshot().Loading)
}

func (s *InitializerSuite) TestManyConcurrentCallsAdmitOne() {
	entered, release := s.blockFirstRefetch()

	done := make(chan Result)
	go func() { done <- s.initializer.InitializePlayer(s.ctx) }()
	<-entered

	var wg sync.WaitGroup
	var mu sync.Mutex
	var kinds []Kind
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := s.initializer.InitializePlayer(s.ctx)
			mu.Lock()
			kinds = append(kinds, r.Kind)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, k := range kinds {
		s.Equal(KindAlreadyInitializing, k)
	}
	close(release)
	s.True((<-done).Success)
}

func (s *InitializerSuite) TestResetMidFlight() {
	entered, release := s.blockFirstRefetch()
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeSuccess, TransactionHash: "0xabc"}}

	done := make(chan Result)
	go func() { done <- s.initializer.InitializePlayer(s.ctx) }()
	<-entered

	s.initializer.Reset()

	state := s.initializer.State()
	s.False(state.IsInitializing)
	s.Equal(model.StepChecking, state.CurrentStep)
	s.False(s.store.Snapshot().Loading)

	close(release)
	stale := <-done

	// the stale run still completes but its session writes are dropped
	s.True(stale.Success)
	after := s.initializer.State()
	s.Equal(model.StepChecking, after.CurrentStep)
	s.False(after.Completed)
	s.Empty(after.TxHash)
	s.Equal(model.TxStatusNone, after.TxStatus)
	s.False(after.IsInitializing)
	s.NotEqual(stale.InvocationID, after.InvocationID)
}

func (s *InitializerSuite) TestNewCallAllowedAfterResetWhileStaleRunFinishes() {
	entered, release := s.blockFirstRefetch()
	s.store.SetPlayer(s.player())

	done := make(chan Result)
	go func() { done <- s.initializer.InitializePlayer(s.ctx) }()
	<-entered

	s.initializer.Reset()
	fresh := s.initializer.InitializePlayer(s.ctx)
	s.True(fresh.Success)
	s.Equal(model.StepSuccess, s.initializer.State().CurrentStep)

	close(release)
	<-done

	// the stale run must not release or overwrite the fresh run's state
	s.Equal(model.StepSuccess, s.initializer.State().CurrentStep)
	s.True(s.initializer.State().Completed)
}

func (s *InitializerSuite) TestResetClearsState() {
	s.chain.SpawnResponses = []*model.TransactionResponse{{Code: model.TxCodeRejected, TransactionHash: "0xdead"}}
	s.initializer.InitializePlayer(s.ctx)

	s.initializer.Reset()

	state := s.initializer.State()
	s.Empty(state.Error)
	s.Empty(state.TxHash)
	s.Equal(model.TxStatusNone, state.TxStatus)
	s.Equal(model.StepChecking, state.CurrentStep)
	s.False(state.Completed)
	s.False(state.PlayerExists)
}

func (s *InitializerSuite) TestCachedPlayerOfAnotherAccountIsDiscarded() {
	s.store.SetPlayer(&model.Player{Owner: "0x000000000000000000000000000000000000beef", Health: 10})
	s.refetchSpawnedOnSecondCall()

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.False(result.PlayerExists)
	s.Len(s.chain.SpawnCalls(), 1)
	s.Equal(s.player(), s.store.Player())
}

func (s *InitializerSuite) TestPollSettlementSuccess() {
	s.config.PollSettlement = true
	s.config.PollInterval = 100 * time.Millisecond
	s.initializer = s.newInitializer()
	s.tracker.Statuses = []model.TxStatus{model.TxStatusPending, model.TxStatusSuccess}
	s.refetchSpawnedOnSecondCall()

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.Equal([]string{"0x1", "0x1"}, s.tracker.StatusCalls())
	s.Equal([]time.Duration{s.config.SettleDelay, 100 * time.Millisecond}, s.clock.Sleeps())
	s.Equal([]string{"0x1"}, s.tracker.Confirmed())
}

func (s *InitializerSuite) TestPollSettlementRejected() {
	s.config.PollSettlement = true
	s.initializer = s.newInitializer()
	s.tracker.Statuses = []model.TxStatus{model.TxStatusRejected}

	result := s.initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(KindTransactionRejected, result.Kind)
	s.Equal([]string{"0x1"}, s.tracker.Reverted())
	s.Equal(model.TxStatusRejected, s.initializer.State().TxStatus)
	s.Equal(1, s.sync.RefetchCalls())
}

func (s *InitializerSuite) TestPollSettlementTimeoutFallsBackToRefetch() {
	s.config.PollSettlement = true
	s.config.PollInterval = time.Second
	s.config.PollTimeout = 3 * time.Second
	s.initializer = s.newInitializer()
	s.refetchSpawnedOnSecondCall()

	result := s.initializer.InitializePlayer(s.ctx)

	s.True(result.Success)
	s.Equal(2, s.sync.RefetchCalls())
	s.Len(s.tracker.StatusCalls(), 4)
}

func (s *InitializerSuite) TestCancelledContextFails() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	result := s.initializer.InitializePlayer(ctx)

	s.False(result.Success)
	s.Equal(KindUnknownFailure, result.Kind)
	s.False(s.initializer.State().IsInitializing)
}

func (s *InitializerSuite) TestPanicInCollaboratorIsRecovered() {
	s.chain.BeforeSpawn = func(context.Context) { panic("boom") }

	var result Result
	s.NotPanics(func() { result = s.initializer.InitializePlayer(s.ctx) })

	s.False(result.Success)
	s.Equal(KindUnknownFailure, result.Kind)
	s.Contains(result.Error, "boom")

	state := s.initializer.State()
	s.False(state.IsInitializing)
	s.Equal(model.StepChecking, state.CurrentStep)

	s.chain.BeforeSpawn = nil
	s.True(s.initializer.InitializePlayer(s.ctx).Success)
}

func (s *InitializerSuite) TestLoadingFollowsFetching() {
	s.sync.SetFetching(true)
	s.True(s.store.Snapshot().Loading)
	s.True(s.initializer.State().IsLoading)

	s.sync.SetFetching(false)
	s.False(s.store.Snapshot().Loading)
}

func (s *InitializerSuite) TestSubscribersSeeStepProgression() {
	s.store.SetPlayer(s.player())
	var steps []model.Step
	unsubscribe := s.initializer.Subscribe(func(st State) {
		if len(steps) == 0 || steps[len(steps)-1] != st.CurrentStep {
			steps = append(steps, st.CurrentStep)
		}
	})
	defer unsubscribe()

	s.initializer.InitializePlayer(s.ctx)

	s.Equal([]model.Step{model.StepChecking, model.StepLoading, model.StepSuccess}, steps)
}

func (s *InitializerSuite) TestConnectionChangedIsPublished() {
	var last State
	s.initializer.Subscribe(func(st State) { last = st })

	s.wallet.Disconnect()
	s.initializer.ConnectionChanged()

	s.False(last.IsConnected)
}
