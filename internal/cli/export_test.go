package cli

// Export internal functions for testing.

// RunTranscribe exports runTranscribe for testing.
var RunTranscribe = runTranscribe

// RunServe exports runServe for testing.
var RunServe = runServe

// RunClean exports runClean for testing.
var RunClean = runClean

// RunInspect exports runInspect for testing.
var RunInspect = runInspect

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// DeriveOutputPath exports deriveOutputPath for testing.
var DeriveOutputPath = deriveOutputPath

// TranscribeFlags exports transcribeFlags for testing.
type TranscribeFlags = transcribeFlags

// ServeFlags exports serveFlags for testing.
type ServeFlags = serveFlags
