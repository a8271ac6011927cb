package sweep

import "fmt"

// Warning codes (W200-W219). Warnings never abort a sweep.
const (
	WarnUnknownKind     = "W201" // sampler asked for an unknown kind; bound_a returned
	WarnNotNumeric      = "W202" // bound could not be converted; bound_a returned
	WarnLogNonPositive  = "W203" // log sampling with lower bound <= 0
	WarnChoiceEmpty     = "W204" // no candidates; raw input returned
	WarnUnknownTagArg   = "W205" // tag-bearing name is not a registered parameter
	WarnSurplusTokens   = "W206" // trailing tokens ignored
	WarnDuplicateTagArg = "W207" // tag-bearing name listed more than once
)

// Diagnostic is a recoverable anomaly found while building a sweep.
type Diagnostic struct {
	Code    string `json:"code"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Param != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Param, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

func warn(code, param, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Param: param, Message: fmt.Sprintf(format, args...)}
}
