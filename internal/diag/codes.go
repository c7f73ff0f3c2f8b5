package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Синтаксис
	SynInfo        Code = 2000
	SynParseError  Code = 2001
	SynUnsupported Code = 2002

	// Ввод-вывод
	IOLoadFileError Code = 4001

	// Правила node: протокола
	RuleInfo               Code = 5000
	RulePreferNodeProtocol Code = 5001
	RuleNeverNodeProtocol  Code = 5002

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		SynInfo:                "Syntax information",
		SynParseError:          "Source contains syntax errors",
		SynUnsupported:         "Unsupported source file",
		IOLoadFileError:        "I/O load file error",
		RuleInfo:               "Rule information",
		RulePreferNodeProtocol: "Built-in module without node: protocol",
		RuleNeverNodeProtocol:  "Built-in module with node: protocol",
		ObsInfo:                "Observability information",
		ObsTimings:             "Pipeline timings",
	}

	// messageIDs связывает коды правил с идентификаторами сообщений.
	messageIDs = map[Code]string{
		RulePreferNodeProtocol: "preferNodeBuiltinImports",
		RuleNeverNodeProtocol:  "neverPreferNodeBuiltinImports",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("NPR%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// MessageID returns the rule message identifier for c, or "" for non-rule codes.
func (c Code) MessageID() string {
	return messageIDs[c]
}

// CodeForMessage is the inverse of Code.MessageID.
func CodeForMessage(id string) (Code, bool) {
	for c, mid := range messageIDs {
		if mid == id {
			return c, true
		}
	}
	return UnknownCode, false
}

// RuleCodes lists the codes a lint rule may emit, in stable order.
func RuleCodes() []Code {
	return []Code{RulePreferNodeProtocol, RuleNeverNodeProtocol}
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
