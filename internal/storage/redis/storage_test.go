package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
	"github.com/mcoot/dojo-starter/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageSuite(t *testing.T) {
	s := &StorageSuite{}
	s.NewStorage = func() storage.Storage {
		s.mini = miniredis.RunT(s.T())

		client := redis.NewClient(&redis.Options{
			Addr: s.mini.Addr(),
		})

		cfg := DefaultConfig()
		cfg.ReceiptTTL = time.Hour
		return NewWithClient(client, cfg)
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestSnapshotStoredUnderNamespaceKey() {
	s.Require().NoError(s.Storage.SaveSnapshot(s.Ctx, "dojo-starter:player-store", model.DurableState{GameStarted: true}))

	s.True(s.mini.Exists("dojo:snapshot:dojo-starter:player-store"))
}

func (s *StorageSuite) TestReceiptTTL() {
	s.Require().NoError(s.Storage.SaveReceipt(s.Ctx, &model.Receipt{TransactionHash: "0x01", Status: model.TxStatusSuccess}))

	s.True(s.mini.TTL(receiptKey("0x01")) > 0, "receipt should expire")
}

func (s *StorageSuite) TestPlayersDoNotExpire() {
	s.Require().NoError(s.Storage.CreatePlayer(s.Ctx, &model.Player{Owner: "0xabc", Health: 100}))

	s.Equal(time.Duration(0), s.mini.TTL(playerKey("0xabc")))
}

func (s *StorageSuite) TestCorruptSnapshotReturnsError() {
	s.Require().NoError(s.mini.Set(snapshotKey("ns"), "{not json"))

	_, err := s.Storage.LoadSnapshot(s.Ctx, "ns")
	s.Error(err)
	s.NotErrorIs(err, model.ErrSnapshotNotFound)
}
