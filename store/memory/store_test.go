package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storetest.Suite{
		NewStore: func() store.Store { return New() },
	})
}
