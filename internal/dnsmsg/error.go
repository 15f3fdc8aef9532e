package dnsmsg

import "errors"

var (
	ErrSmallBuffer = errors.New("buffer is too small")

	errBaseLen          = errors.New("insufficient data for base length type")
	errCalcLen          = errors.New("insufficient data for calculated length type")
	errReserved         = errors.New("segment prefix is reserved")
	errCompressedName   = errors.New("compressed name is not supported")
	errSegTooLong       = errors.New("segment length too long")
	errNameTooLong      = errors.New("name too long")
	errZeroSegLen       = errors.New("zero length segment")
	errInvalidLabelLen  = errors.New("invalid label length")
	errResourceLen      = errors.New("insufficient data for resource body length")
	errInvalidRDataLen  = errors.New("invalid resource data length")
	errTooManyQuestions = errors.New("too many questions to pack (>65535)")
	errTooManyAnswers   = errors.New("too many answers to pack (>65535)")
)

type sectionErr struct {
	sec string
	err error
}

func (e *sectionErr) Error() string {
	return e.sec + ": " + e.err.Error()
}

func (e *sectionErr) Unwrap() error {
	return e.err
}

func newSectionErr(sec string, err error) error {
	return &sectionErr{sec: sec, err: err}
}
