package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/esdeploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/esdeploy/internal/adapters/fs"
	"github.com/trebuchet-org/esdeploy/internal/adapters/interactive"
	"github.com/trebuchet-org/esdeploy/internal/adapters/pipeline"
	"github.com/trebuchet-org/esdeploy/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/esdeploy/internal/adapters/senders"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewAddressBookAdapter,
	wire.Bind(new(usecase.AddressBook), new(*fs.AddressBookAdapter)),

	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigStore), new(*fs.LocalConfigStoreAdapter)),
)

// ContractsSet provides artifact lookup
var ContractsSet = wire.NewSet(
	contracts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*contracts.Repository)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ArtifactSelector), new(*interactive.SelectorAdapter)),

	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.BroadcastConfirmer), new(*interactive.ConfirmerAdapter)),
)

// BlockchainSet provides the chain client and signer
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.Client)),

	senders.NewResolver,
	wire.Bind(new(usecase.SignerResolver), new(*senders.Resolver)),
)

// PipelineSet provides pipeline loading
var PipelineSet = wire.NewSet(
	pipeline.NewParser,
	wire.Bind(new(usecase.PipelineLoader), new(*pipeline.Parser)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ContractsSet,
	InteractiveSet,
	BlockchainSet,
	PipelineSet,
)
