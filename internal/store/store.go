package store

import (
	"github.com/dwarvesf/swap-history/internal/store/chainflipswap"
	"github.com/dwarvesf/swap-history/internal/store/closingprice"
	"github.com/dwarvesf/swap-history/internal/store/swaprecord"
)

type Store struct {
	SwapRecord    swaprecord.IStore
	ChainflipSwap chainflipswap.IStore
	ClosingPrice  closingprice.IStore
}

func New() *Store {
	return &Store{
		SwapRecord:    swaprecord.New(),
		ChainflipSwap: chainflipswap.New(),
		ClosingPrice:  closingprice.New(),
	}
}
