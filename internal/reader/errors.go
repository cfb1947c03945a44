package reader

// FailureKind tells why a generation attempt produced nothing usable.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureEmpty     FailureKind = "empty"
	FailureAbnormal  FailureKind = "abnormal"
)

// GenerationFailure is returned when no usable text could be obtained after
// every configured attempt. Error never includes the provider's own message;
// the cause is reachable through Unwrap.
type GenerationFailure struct {
	Kind  FailureKind
	Model string
	Err   error
}

func (e *GenerationFailure) Error() string {
	switch e.Kind {
	case FailureEmpty:
		return "could not retrieve the article: the model returned no content"
	case FailureAbnormal:
		return "could not retrieve the article: generation stopped unexpectedly"
	default:
		return "could not retrieve the article: the model service is unavailable"
	}
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// BlockKind distinguishes policy blocks.
type BlockKind string

const (
	BlockSafety    BlockKind = "safety"
	BlockCopyright BlockKind = "copyright"
)

// ContentBlocked is returned when the service declined to produce content for
// policy reasons.
type ContentBlocked struct {
	Kind  BlockKind
	Model string
}

func (e *ContentBlocked) Error() string {
	switch e.Kind {
	case BlockCopyright:
		return "the article could not be reproduced because of copyright restrictions"
	default:
		return "the article was blocked by the content safety filter"
	}
}
