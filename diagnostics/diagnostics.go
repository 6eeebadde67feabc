// Package diagnostics implements the permissive policy layer: the ordered
// collection of structural anomalies a record can carry, and the
// fatal/non-fatal gating rules that decide whether an anomaly aborts the
// current record.
//
// It exists so that frame and directory — which otherwise have no reason
// to import each other — can share one severity-tagged collector without
// an import cycle, the same role internal/rels once played between
// workbook and worksheet.
package diagnostics

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Severity ranks a Diagnostic's impact on the current record.
type Severity int

const (
	// Info is purely informational; never fatal.
	Info Severity = iota
	// Typo marks a cosmetic irregularity (e.g. a non-standard indicator
	// byte); never fatal.
	Typo
	// MinorError marks a repaired structural anomaly; never fatal,
	// permissive or not.
	MinorError
	// MajorError marks a more serious anomaly; fatal only if the policy
	// is not permissive.
	MajorError
	// Fatal always aborts the current record, permissive or not.
	Fatal
)

// String renders the severity the way it would appear in a log line or a
// diagnostic dump.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Typo:
		return "TYPO"
	case MinorError:
		return "MINOR"
	case MajorError:
		return "MAJOR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Kind names the specific anomaly a Diagnostic reports, matching the
// error-kind vocabulary of spec.md §7.
type Kind string

const (
	KindEndOfStream             Kind = "EndOfStream"
	KindTruncatedLeader         Kind = "TruncatedLeader"
	KindUnexpectedEOF           Kind = "UnexpectedEof"
	KindMalformedLeader         Kind = "MalformedLeader"
	KindStatedLengthTooLong     Kind = "StatedLengthTooLong"
	KindStatedLengthTooShort    Kind = "StatedLengthTooShort"
	KindMissingTerminator       Kind = "MissingTerminator"
	KindTruncatedDeclaredLength Kind = "TruncatedDeclaredLength"
	KindDirectoryMisaligned     Kind = "DirectoryMisaligned"
	KindNonStandardIndicator    Kind = "NonStandardIndicator"
	KindEncodingGuessed         Kind = "EncodingGuessed"
	KindBaseAddressCorrected    Kind = "BaseAddressCorrected"
	KindCharsetConversionFailed Kind = "CharsetConversionFailed"
)

// Diagnostic is one recorded anomaly.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	// Tag is the 3-character field tag the anomaly relates to, or "n/a".
	Tag string
	// Subfield is the subfield code the anomaly relates to, or "n/a".
	Subfield string
	Message  string
}

const notApplicable = "n/a"

// NewDiagnostic builds a Diagnostic with Tag and Subfield defaulted to
// "n/a"; callers set them explicitly when the anomaly is field-scoped.
func NewDiagnostic(sev Severity, kind Kind, message string) Diagnostic {
	return Diagnostic{Severity: sev, Kind: kind, Tag: notApplicable, Subfield: notApplicable, Message: message}
}

// WithTag returns a copy of d scoped to the given field tag.
func (d Diagnostic) WithTag(tag string) Diagnostic {
	d.Tag = tag
	return d
}

// WithSubfield returns a copy of d scoped to the given subfield code.
func (d Diagnostic) WithSubfield(code byte) Diagnostic {
	d.Subfield = string(code)
	return d
}

// kindErrors maps each Kind to the sentinel error its diagnostics are
// wrapped around when they abort a record. errors.Is against these
// sentinels is stable even though the wrapping context string varies per
// call; errors.Cause recovers the sentinel itself.
var kindErrors = map[Kind]error{
	KindTruncatedLeader:         errors.New("marc: truncated leader"),
	KindUnexpectedEOF:           errors.New("marc: unexpected end of stream"),
	KindMalformedLeader:         errors.New("marc: malformed leader"),
	KindMissingTerminator:       errors.New("marc: missing record terminator"),
	KindTruncatedDeclaredLength: errors.New("marc: truncated declared length"),
	KindCharsetConversionFailed: errors.New("marc: charset conversion failed"),
	KindStatedLengthTooLong:     errors.New("marc: stated record length too long"),
	KindDirectoryMisaligned:     errors.New("marc: directory misaligned"),
}

// ErrFor returns the sentinel error associated with kind. A kind with no
// dedicated sentinel (the kinds that are never used to abort a record)
// gets a new error naming the kind, created afresh on each call.
func ErrFor(kind Kind) error {
	if err, ok := kindErrors[kind]; ok {
		return err
	}
	return errors.Errorf("marc: %s", kind)
}

// Policy is the permissive policy layer: it decides whether a recorded
// anomaly aborts the current record, and keeps the ordered diagnostic
// list for the caller's errors()/Diagnostics() accessor.
type Policy struct {
	// Permissive enables the repairs of spec.md §4.6; when false, the
	// first MajorError or Fatal diagnostic aborts the current record.
	Permissive bool
	// Logger, if set, receives every recorded diagnostic as a structured
	// log line at a level derived from its Severity. Diagnostics are
	// always collected regardless of whether Logger is set — logging is
	// additive, never a substitute for the typed collection.
	Logger *zap.Logger

	diags []Diagnostic
}

// NewPolicy returns a Policy with the given permissiveness and no
// logger attached.
func NewPolicy(permissive bool) *Policy {
	return &Policy{Permissive: permissive}
}

// Reset clears the diagnostic list, called before each record is decoded.
func (p *Policy) Reset() {
	p.diags = p.diags[:0]
}

// Diagnostics returns the diagnostics recorded since the last Reset, in
// the order they were recorded.
func (p *Policy) Diagnostics() []Diagnostic {
	return p.diags
}

// Record appends d to the diagnostic list, logs it if a Logger is set,
// and returns a non-nil error — wrapping ErrFor(d.Kind) with d.Message —
// when d.Severity is Fatal (always), or MajorError and the policy is not
// Permissive. Info, Typo, MinorError, and (when Permissive) MajorError
// diagnostics are recorded but return a nil error.
func (p *Policy) Record(d Diagnostic) error {
	p.diags = append(p.diags, d)
	p.log(d)

	switch {
	case d.Severity == Fatal:
		return errors.Wrap(ErrFor(d.Kind), d.Message)
	case d.Severity == MajorError && !p.Permissive:
		return errors.Wrap(ErrFor(d.Kind), d.Message)
	default:
		return nil
	}
}

func (p *Policy) log(d Diagnostic) {
	if p.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("kind", string(d.Kind)),
		zap.String("tag", d.Tag),
		zap.String("subfield", d.Subfield),
	}
	switch d.Severity {
	case Info, Typo:
		p.Logger.Debug(d.Message, fields...)
	case MinorError:
		p.Logger.Info(d.Message, fields...)
	case MajorError:
		p.Logger.Warn(d.Message, fields...)
	case Fatal:
		p.Logger.Error(d.Message, fields...)
	}
}
