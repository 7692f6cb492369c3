// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
)

// Suite runs the common storage contract against the backend returned by NewStorage
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// Snapshot tests

func (s *Suite) TestSaveAndLoadSnapshot() {
	state := model.DurableState{
		Player:      &model.Player{Owner: "0xabc", Experience: 10, Health: 90, Coins: 3, CreationDay: 19000},
		GameStarted: true,
	}

	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "ns", state))

	loaded, err := s.Storage.LoadSnapshot(s.Ctx, "ns")
	s.Require().NoError(err)
	s.Equal(state.Player, loaded.Player)
	s.True(loaded.GameStarted)
}

func (s *Suite) TestSnapshotLastWriteWins() {
	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "ns", model.DurableState{GameStarted: true}))
	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "ns", model.DurableState{
		Player: &model.Player{Owner: "0xabc", Health: 100},
	}))

	loaded, err := s.Storage.LoadSnapshot(s.Ctx, "ns")
	s.Require().NoError(err)
	s.False(loaded.GameStarted)
	s.Equal("0xabc", loaded.Player.Owner)
}

func (s *Suite) TestSnapshotWithoutPlayer() {
	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "ns", model.DurableState{}))

	loaded, err := s.Storage.LoadSnapshot(s.Ctx, "ns")
	s.Require().NoError(err)
	s.Nil(loaded.Player)
}

func (s *Suite) TestLoadSnapshotNotFound() {
	_, err := s.Storage.LoadSnapshot(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *Suite) TestDeleteSnapshot() {
	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "ns", model.DurableState{GameStarted: true}))
	s.Require().NoError(s.Storage.DeleteSnapshot(s.Ctx, "ns"))

	_, err := s.Storage.LoadSnapshot(s.Ctx, "ns")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	player := &model.Player{Owner: "0xabc", Health: 100, CreationDay: 19000}

	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, player))

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(player, retrieved)
}

func (s *Suite) TestCreatePlayerIsUniquePerOwner() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 100}))

	err := s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 1})
	s.ErrorIs(err, model.ErrPlayerAlreadyExists)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(int64(100), retrieved.Health)
}

func (s *Suite) TestOwnerLookupIsCaseInsensitive() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xABC", Health: 100}))

	_, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.NoError(err)
}

func (s *Suite) TestUpdatePlayer() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 100, CreationDay: 19000}))

	updated, err := s.Storage.UpdatePlayer(s.Ctx, "0xABC", func(p *model.Player) error {
		p.Coins += 5
		p.Health -= 5
		return nil
	})
	s.Require().NoError(err)
	s.Equal(uint64(5), updated.Coins)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(&model.Player{Owner: "0xabc", Health: 95, Coins: 5, CreationDay: 19000}, retrieved)
}

func (s *Suite) TestUpdatePlayerAbortsOnError() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 1}))

	_, err := s.Storage.UpdatePlayer(s.Ctx, "0xabc", func(p *model.Player) error {
		p.Health = 0
		return model.ErrInsufficientHealth
	})
	s.ErrorIs(err, model.ErrInsufficientHealth)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(int64(1), retrieved.Health)
}

func (s *Suite) TestUpdatePlayerNotFound() {
	_, err := s.Storage.UpdatePlayer(s.Ctx, "0xnobody", func(p *model.Player) error { return nil })
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestConcurrentUpdatesAreNotLost() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 100}))

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdatePlayer(s.Ctx, "0xabc", func(p *model.Player) error {
				p.Experience += 10
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(uint64(10*writers), retrieved.Experience)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "0xnobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Receipt tests

func (s *Suite) TestSaveAndGetReceipt() {
	receipt := &model.Receipt{
		TransactionHash: "0x01",
		Status:          model.TxStatusRejected,
		Errors:          []string{"boom"},
		Block:           7,
	}
	s.Require().NoError(s.Storage.SaveReceipt(s.Ctx, receipt))

	retrieved, err := s.Storage.GetReceipt(s.Ctx, "0x01")
	s.Require().NoError(err)
	s.Equal(receipt, retrieved)
}

func (s *Suite) TestGetReceiptNotFound() {
	_, err := s.Storage.GetReceipt(s.Ctx, "0xmissing")
	s.ErrorIs(err, model.ErrReceiptNotFound)
}

func (s *Suite) TestNextBlockIncrements() {
	first, err := s.Storage.NextBlock(s.Ctx)
	s.Require().NoError(err)
	second, err := s.Storage.NextBlock(s.Ctx)
	s.Require().NoError(err)
	s.Equal(first+1, second)
}
