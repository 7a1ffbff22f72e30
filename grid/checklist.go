package grid

import (
	"fmt"
	"strings"
)

// Check is one recorded gate evaluation: the inputs that went in and
// whether it passed. The checklist exists for the logging collaborator;
// decisions never read it back.
type Check struct {
	Name   string
	Pass   bool
	Detail string
}

type Checklist []Check

func (c Checklist) String() string {
	if len(c) == 0 {
		return "(no checks)"
	}
	parts := make([]string, 0, len(c))
	for _, ch := range c {
		mark := "FAIL"
		if ch.Pass {
			mark = "ok"
		}
		parts = append(parts, fmt.Sprintf("%s=%s [%s]", ch.Name, mark, ch.Detail))
	}
	return strings.Join(parts, " ")
}

// AllPassed reports whether every recorded check passed.
func (c Checklist) AllPassed() bool {
	for _, ch := range c {
		if !ch.Pass {
			return false
		}
	}
	return len(c) > 0
}

func (e *Engine) check(name string, pass bool, detail string) bool {
	e.checklist = append(e.checklist, Check{Name: name, Pass: pass, Detail: detail})
	return pass
}
