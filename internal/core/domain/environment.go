package domain

import (
	"sync"
)

// EnvironmentContext is the runtime an output runs in.
type EnvironmentContext string

const (
	// ContextBrowser targets browsers.
	ContextBrowser EnvironmentContext = "browser"
	// ContextNode targets Node.js.
	ContextNode EnvironmentContext = "node"
	// ContextElectronMain targets the Electron main process.
	ContextElectronMain EnvironmentContext = "electron-main"
	// ContextElectronRenderer targets Electron renderer processes.
	ContextElectronRenderer EnvironmentContext = "electron-renderer"
	// ContextWebWorker targets dedicated web workers.
	ContextWebWorker EnvironmentContext = "web-worker"
	// ContextServiceWorker targets service workers.
	ContextServiceWorker EnvironmentContext = "service-worker"
)

// AllContexts lists every supported environment context.
func AllContexts() []EnvironmentContext {
	return []EnvironmentContext{
		ContextBrowser,
		ContextNode,
		ContextElectronMain,
		ContextElectronRenderer,
		ContextWebWorker,
		ContextServiceWorker,
	}
}

// OutputFormat is the module format of an output.
type OutputFormat string

const (
	// FormatESModule emits ES modules.
	FormatESModule OutputFormat = "esmodule"
	// FormatCommonJS emits CommonJS modules.
	FormatCommonJS OutputFormat = "commonjs"
	// FormatGlobal emits scripts that attach to the global scope.
	FormatGlobal OutputFormat = "global"
)

// SourceType tells transformers how to parse source.
type SourceType string

const (
	// SourceModule parses as an ES module.
	SourceModule SourceType = "module"
	// SourceScript parses as a classic script.
	SourceScript SourceType = "script"
)

// Environment is the compilation target context of a dependency or asset.
// Environments are immutable once interned and shared by pointer.
type Environment struct {
	Context            EnvironmentContext `cbor:"context" json:"context"`
	Engines            map[string]string  `cbor:"engines,omitempty" json:"engines,omitempty"`
	IncludeNodeModules bool               `cbor:"includeNodeModules" json:"includeNodeModules"`
	OutputFormat       OutputFormat       `cbor:"outputFormat" json:"outputFormat"`
	SourceType         SourceType         `cbor:"sourceType" json:"sourceType"`
	IsLibrary          bool               `cbor:"isLibrary" json:"isLibrary"`
	ShouldOptimize     bool               `cbor:"shouldOptimize" json:"shouldOptimize"`
	ShouldScopeHoist   bool               `cbor:"shouldScopeHoist" json:"shouldScopeHoist"`
	SourceMap          bool               `cbor:"sourceMap" json:"sourceMap"`
}

// ID returns the stable identity of the environment.
func (e *Environment) ID() string {
	if e == nil {
		return ""
	}
	return NewIDHasher().
		String(string(e.Context)).
		Map(e.Engines).
		Bool(e.IncludeNodeModules).
		String(string(e.OutputFormat)).
		String(string(e.SourceType)).
		Bool(e.IsLibrary).
		Bool(e.ShouldOptimize).
		Bool(e.ShouldScopeHoist).
		Bool(e.SourceMap).
		Sum()
}

// IsBrowser reports whether code runs in a browser-like context.
func (e *Environment) IsBrowser() bool {
	switch e.Context {
	case ContextBrowser, ContextWebWorker, ContextServiceWorker, ContextElectronRenderer:
		return true
	default:
		return false
	}
}

// IsNode reports whether code runs with Node.js APIs available.
func (e *Environment) IsNode() bool {
	switch e.Context {
	case ContextNode, ContextElectronMain, ContextElectronRenderer:
		return true
	default:
		return false
	}
}

// DefaultEnvironment returns the environment used when nothing else is configured.
func DefaultEnvironment() Environment {
	return Environment{
		Context:            ContextBrowser,
		IncludeNodeModules: true,
		OutputFormat:       FormatESModule,
		SourceType:         SourceModule,
	}
}

var environments sync.Map // map[string]*Environment

// InternEnvironment returns the shared instance for env, storing it on first use.
// Every dependency and asset with an equal environment points at the same value.
func InternEnvironment(env Environment) *Environment {
	id := env.ID()
	if existing, ok := environments.Load(id); ok {
		return existing.(*Environment)
	}

	actual, _ := environments.LoadOrStore(id, &env)
	return actual.(*Environment)
}

// Reintern replaces a decoded environment pointer with its shared instance.
func Reintern(env *Environment) *Environment {
	if env == nil {
		return nil
	}
	return InternEnvironment(*env)
}
