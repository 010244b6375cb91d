package errors

// Convenience functions for common error patterns

// Configuration loading errors

func ConfigurationFileMissing(path string) *BuildControlError {
	return New(KindFileMissing, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func MalformedDocument(path string, cause error) *BuildControlError {
	return Wrap(cause, KindMalformedDocument, SeverityFatal, "configuration document is not well-formed").
		WithContext("path", path)
}

func SchemaViolations(path string, count int) *BuildControlError {
	return New(KindSchemaViolation, SeverityFatal, "configuration document violates schema").
		WithContext("path", path).
		WithContext("violations", count)
}

func UnresolvedInclusion(ref, includedFrom string) *BuildControlError {
	return New(KindUnresolvedInclusion, SeverityFatal, "included file could not be resolved").
		WithContext("reference", ref).
		WithContext("included_from", includedFrom)
}

func InclusionCycle(path string) *BuildControlError {
	return New(KindInclusionCycle, SeverityFatal, "configuration include cycle detected").
		WithContext("path", path)
}

func UnknownNode(tag, location string) *BuildControlError {
	return New(KindUnknownNode, SeverityFatal, "unknown configuration element").
		WithContext("tag", tag).
		WithContext("location", location)
}

func InvalidAttribute(tag, attribute, reason string) *BuildControlError {
	return New(KindInvalidAttribute, SeverityFatal, "invalid configuration attribute").
		WithContext("tag", tag).
		WithContext("attribute", attribute).
		WithContext("reason", reason)
}

// Runtime errors

func NetworkTimeout(url string, cause error) *BuildControlError {
	return WrapRetryable(cause, KindNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

func DaemonError(message string) *BuildControlError {
	return New(KindDaemon, SeverityError, message)
}

func InternalError(message string, cause error) *BuildControlError {
	return Wrap(cause, KindInternal, SeverityFatal, message)
}
