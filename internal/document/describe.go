package document

import (
	"errors"
	"fmt"
	"strings"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

const templateHint = "템플릿 파일의 태그가 올바르게 작성되었는지 확인해주세요."

// Describe converts a generation error into the message shown to the user.
// Template syntax problems are listed one block per error. Every message
// other than a missing step ends with a hint to check the template tags.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var missing *docerrors.MissingDataError
	if errors.As(err, &missing) {
		switch missing.Step {
		case StepSign:
			return "시그니처가 없습니다. 이전 단계로 돌아가서 시그니처를 그려주세요."
		case StepInfo:
			return "입력 정보가 없습니다. 첫 번째 단계로 돌아가서 정보를 입력해주세요."
		}
	}

	var b strings.Builder
	b.WriteString("문서 저장 중 오류가 발생했습니다.\n\n")

	syntaxErrs := docerrors.SyntaxErrors(err)
	if len(syntaxErrs) == 0 {
		b.WriteString(err.Error())
	}
	for i, e := range syntaxErrs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "오류 %d:\n", i+1)
		fmt.Fprintf(&b, "  파일: %s\n", orUnknown(e.File))
		if e.Offset >= 0 {
			fmt.Fprintf(&b, "  위치: %d\n", e.Offset)
		} else {
			b.WriteString("  위치: unknown\n")
		}
		fmt.Fprintf(&b, "  컨텍스트: %s\n", orUnknown(e.Context))
		fmt.Fprintf(&b, "  설명: %s", orUnknown(e.Explanation))
	}
	b.WriteString("\n\n" + templateHint)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
