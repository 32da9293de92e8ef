package precompile

// NodePrecompileSource exposes the embedded script to tests
var NodePrecompileSource = nodePrecompileSource
