package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// IntegrationSuite drives the wired app against an in-process devnet over HTTP
type IntegrationSuite struct {
	suite.Suite
	app     *TestApp
	account *wallet.BurnerAccount
	ctx     context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	flow := initflow.DefaultConfig()
	flow.PollSettlement = true
	flow.PollInterval = 10 * time.Millisecond
	flow.PollTimeout = time.Second

	s.app = NewDevnetTestApp(flow)
	s.ctx = context.Background()

	account, err := s.app.ConnectBurner()
	s.Require().NoError(err)
	s.account = account
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// Test: A fresh account gets a spawned player
func (s *IntegrationSuite) TestSpawnsNewPlayer() {
	result := s.app.Initializer.InitializePlayer(s.ctx)

	s.Require().True(result.Success, result.Error)
	s.False(result.PlayerExists)
	s.NotEmpty(result.TransactionHash)

	p := s.app.Store.Player()
	s.Require().NotNil(p)
	s.Equal(s.account.Address(), p.Owner)
	s.Equal(int64(model.MaxHealth), p.Health)
	s.Equal(model.DayIndex(s.app.Clock.Now()), p.CreationDay)

	state := s.app.Initializer.State()
	s.Equal(model.StepSuccess, state.CurrentStep)
	s.Equal(model.TxStatusSuccess, state.TxStatus)
	s.True(state.Completed)
	s.False(state.IsInitializing)
	s.False(s.app.Store.Snapshot().Loading)
	s.Empty(s.app.Tracker.Pending())
}

// Test: A second run after reset finds the existing player
func (s *IntegrationSuite) TestSecondRunLoadsExistingPlayer() {
	first := s.app.Initializer.InitializePlayer(s.ctx)
	s.Require().True(first.Success, first.Error)

	s.app.Initializer.Reset()
	second := s.app.Initializer.InitializePlayer(s.ctx)

	s.Require().True(second.Success, second.Error)
	s.True(second.PlayerExists)
	s.Empty(second.TransactionHash)
	s.Equal(model.StepSuccess, s.app.Initializer.State().CurrentStep)
}

// Test: A stale cache from another process is replaced by the backend's player
func (s *IntegrationSuite) TestEmptyStoreWithExistingPlayerLoads() {
	first := s.app.Initializer.InitializePlayer(s.ctx)
	s.Require().True(first.Success, first.Error)

	s.app.Store.Reset()
	s.app.Initializer.Reset()

	result := s.app.Initializer.InitializePlayer(s.ctx)

	s.Require().True(result.Success, result.Error)
	s.True(result.PlayerExists)
	s.Equal(s.account.Address(), s.app.Store.Player().Owner)
}

// Test: Switching accounts drops the previous owner's player and spawns a new one
func (s *IntegrationSuite) TestAccountSwitch() {
	first := s.app.Initializer.InitializePlayer(s.ctx)
	s.Require().True(first.Success, first.Error)

	other, err := s.app.ConnectBurner()
	s.Require().NoError(err)
	s.Nil(s.app.Store.Player())

	s.app.Initializer.Reset()
	result := s.app.Initializer.InitializePlayer(s.ctx)

	s.Require().True(result.Success, result.Error)
	s.False(result.PlayerExists)
	s.Equal(other.Address(), s.app.Store.Player().Owner)
}

// Test: Gameplay actions settle and refetch
func (s *IntegrationSuite) TestActionsAfterSpawn() {
	s.Require().True(s.app.Initializer.InitializePlayer(s.ctx).Success)

	train, err := s.app.Actions.Perform(s.ctx, model.ActionTrain)
	s.Require().NoError(err)
	s.Equal(model.TxStatusSuccess, train.Status)

	mine, err := s.app.Actions.Perform(s.ctx, model.ActionMine)
	s.Require().NoError(err)
	s.Equal(model.TxStatusSuccess, mine.Status)

	p := s.app.Store.Player()
	s.Equal(uint64(model.TrainExperience), p.Experience)
	s.Equal(uint64(model.MineCoins), p.Coins)
	s.Equal(int64(model.MaxHealth-model.MineHealthCost), p.Health)
	s.Empty(s.app.Tracker.Pending())
}

// Test: Initialization without a wallet fails without touching the backend
func (s *IntegrationSuite) TestNotConnected() {
	s.app.Wallet.Disconnect()

	result := s.app.Initializer.InitializePlayer(s.ctx)

	s.False(result.Success)
	s.Equal(initflow.KindNotConnected, result.Kind)
	s.Equal(model.ErrNotConnected.Error(), s.app.Store.Snapshot().Error)
	s.Nil(s.app.Store.Player())
}

// Test: Store changes reach the persisted snapshot
func (s *IntegrationSuite) TestStorePersists() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.Require().NoError(s.app.Start(ctx))

	s.Require().True(s.app.Initializer.InitializePlayer(s.ctx).Success)
	s.app.Store.StartGame()

	s.Eventually(func() bool {
		state, err := s.app.Storage.LoadSnapshot(s.ctx, store.DefaultKey)
		return err == nil && state.GameStarted && state.Player != nil &&
			state.Player.Owner == s.account.Address()
	}, time.Second, 10*time.Millisecond)

	cancel()
}

// Test: A new app restores the persisted store on start
func (s *IntegrationSuite) TestRestoreOnStart() {
	p := model.NewPlayer(s.account.Address(), s.app.Clock.Now())
	s.Require().NoError(s.app.Storage.SaveSnapshot(s.ctx, store.DefaultKey, model.DurableState{Player: p, GameStarted: true}))

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.Require().NoError(s.app.Start(ctx))

	snap := s.app.Store.Snapshot()
	s.Equal(p, snap.Player)
	s.True(snap.GameStarted)
}
