package app

import (
	"github.com/mirceamironenco/tunekit/components/checkpointer"
	"github.com/mirceamironenco/tunekit/components/dataset"
	"github.com/mirceamironenco/tunekit/components/hub"
	"github.com/mirceamironenco/tunekit/components/model"
	"github.com/mirceamironenco/tunekit/components/optimizer"
	"github.com/mirceamironenco/tunekit/components/quantizer"
	"github.com/mirceamironenco/tunekit/components/tokenizer"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// coreModules lists the component packages every default App registers.
var coreModules = []registry.Module{
	&checkpointer.Module{},
	&dataset.Module{},
	&hub.Module{},
	&model.Module{},
	&optimizer.Module{},
	&quantizer.Module{},
	&tokenizer.Module{},
}
