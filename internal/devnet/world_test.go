package devnet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dojo-starter/internal/dependencies/mocks"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/sign"
	"github.com/mcoot/dojo-starter/internal/storage/memory"
	"github.com/mcoot/dojo-starter/internal/testutil"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

const testNamespace = "dojo_starter"

type WorldSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	world   *World
	account *wallet.BurnerAccount
	ctx     context.Context
}

func TestWorldSuite(t *testing.T) {
	suite.Run(t, new(WorldSuite))
}

func (s *WorldSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.world = NewWorld(s.storage, s.clock, s.random, testNamespace, testutil.NopLogger())
	s.ctx = context.Background()

	account, err := wallet.NewBurnerAccount()
	s.Require().NoError(err)
	s.account = account
}

func (s *WorldSuite) payload(action model.Action) *sign.SignedPayload {
	p, err := sign.NewSignedPayload(s.account, testNamespace, "nonce", action, nil)
	s.Require().NoError(err)
	return p
}

func (s *WorldSuite) execute(action model.Action) *model.TransactionResponse {
	resp, err := s.world.Execute(s.ctx, action, s.payload(action))
	s.Require().NoError(err)
	return resp
}

func (s *WorldSuite) TestSpawnCreatesPlayerWithDefaults() {
	s.random.QueueHex("0xabc")

	resp := s.execute(model.ActionSpawn)

	s.Equal(model.TxCodeSuccess, resp.Code)
	s.Equal("0xabc", resp.TransactionHash)

	p, err := s.world.Player(s.ctx, s.account.Address())
	s.Require().NoError(err)
	s.Equal(s.account.Address(), p.Owner)
	s.Equal(int64(model.DefaultHealth), p.Health)
	s.Zero(p.Coins)
	s.Zero(p.Experience)
	s.Equal(model.DayIndex(s.clock.Now()), p.CreationDay)

	receipt, err := s.world.Receipt(s.ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(model.TxStatusSuccess, receipt.Status)
	s.Equal(uint64(1), receipt.Block)
}

func (s *WorldSuite) TestSecondSpawnIsRejected() {
	s.random.QueueHex("0x1", "0x2")
	s.execute(model.ActionSpawn)

	resp := s.execute(model.ActionSpawn)

	s.Equal(model.TxCodeRejected, resp.Code)
	s.Equal("0x2", resp.TransactionHash)
	s.Contains(resp.Reason, "already exists")

	receipt, err := s.world.Receipt(s.ctx, "0x2")
	s.Require().NoError(err)
	s.Equal(model.TxStatusRejected, receipt.Status)
	s.NotEmpty(receipt.Errors)
}

func (s *WorldSuite) TestActionsApplyRules() {
	s.execute(model.ActionSpawn)

	s.Equal(model.TxCodeSuccess, s.execute(model.ActionTrain).Code)
	s.Equal(model.TxCodeSuccess, s.execute(model.ActionMine).Code)

	p, err := s.world.Player(s.ctx, s.account.Address())
	s.Require().NoError(err)
	s.Equal(uint64(model.TrainExperience), p.Experience)
	s.Equal(uint64(model.MineCoins), p.Coins)
	s.Equal(int64(model.DefaultHealth-model.MineHealthCost), p.Health)

	s.Equal(model.TxCodeSuccess, s.execute(model.ActionRest).Code)
	p, err = s.world.Player(s.ctx, s.account.Address())
	s.Require().NoError(err)
	s.Equal(int64(model.MaxHealth), p.Health)
}

func (s *WorldSuite) TestConcurrentActionsAllApply() {
	s.execute(model.ActionSpawn)

	const n = 20
	payloads := make([]*sign.SignedPayload, n)
	for i := range payloads {
		payloads[i] = s.payload(model.ActionTrain)
	}

	var wg sync.WaitGroup
	codes := make(chan string, n)
	for _, p := range payloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.world.Execute(s.ctx, model.ActionTrain, p)
			if err != nil {
				codes <- err.Error()
				return
			}
			codes <- resp.Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		s.Equal(model.TxCodeSuccess, code)
	}

	p, err := s.world.Player(s.ctx, s.account.Address())
	s.Require().NoError(err)
	s.Equal(uint64(n*model.TrainExperience), p.Experience)
}

func (s *WorldSuite) TestMineWithoutHealthIsRejected() {
	s.execute(model.ActionSpawn)
	_, err := s.storage.UpdatePlayer(s.ctx, s.account.Address(), func(p *model.Player) error {
		p.Health = 1
		return nil
	})
	s.Require().NoError(err)

	resp := s.execute(model.ActionMine)

	s.Equal(model.TxCodeRejected, resp.Code)
	s.Contains(resp.Reason, "health")
}

func (s *WorldSuite) TestActionWithoutPlayerIsRejected() {
	resp := s.execute(model.ActionTrain)
	s.Equal(model.TxCodeRejected, resp.Code)
}

func (s *WorldSuite) TestMismatchedActionIsAnError() {
	_, err := s.world.Execute(s.ctx, model.ActionTrain, s.payload(model.ActionSpawn))
	s.ErrorIs(err, model.ErrUnknownAction)
}

func (s *WorldSuite) TestUnknownActionIsAnError() {
	_, err := s.world.Execute(s.ctx, "dance", s.payload("dance"))
	s.ErrorIs(err, model.ErrUnknownAction)
}

func (s *WorldSuite) TestWrongNamespaceIsAnError() {
	p, err := sign.NewSignedPayload(s.account, "other", "nonce", model.ActionSpawn, nil)
	s.Require().NoError(err)

	_, err = s.world.Execute(s.ctx, model.ActionSpawn, p)
	s.ErrorIs(err, model.ErrInvalidSignature)
}

func (s *WorldSuite) TestForgedSignatureIsAnError() {
	other, err := wallet.NewBurnerAccount()
	s.Require().NoError(err)

	p := s.payload(model.ActionSpawn)
	p.Signer = other.Address()

	_, err = s.world.Execute(s.ctx, model.ActionSpawn, p)
	s.ErrorIs(err, model.ErrInvalidSignature)

	_, err = s.world.Player(s.ctx, other.Address())
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
