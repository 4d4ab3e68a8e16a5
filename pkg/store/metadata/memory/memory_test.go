package memory

import (
	"testing"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
	metadatatesting "github.com/marmos91/dfsclient/pkg/store/metadata/testing"
)

func TestMemoryMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.Store {
			return NewMemoryMetadataStore()
		},
	}

	suite.Run(t)
}
