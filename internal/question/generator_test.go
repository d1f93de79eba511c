package question

import (
	"strconv"
	"strings"
	"testing"
)

// evalExpr re-evaluates a generated "a op b" expression.
func evalExpr(t *testing.T, expr string) (a, b int, op string, result int) {
	t.Helper()

	parts := strings.Fields(expr)
	if len(parts) != 3 {
		t.Fatalf("malformed expression %q", expr)
	}

	a, err := strconv.Atoi(parts[0])
	if err != nil {
		t.Fatalf("bad left operand in %q: %v", expr, err)
	}
	b, err = strconv.Atoi(parts[2])
	if err != nil {
		t.Fatalf("bad right operand in %q: %v", expr, err)
	}
	op = parts[1]

	switch op {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		result = a / b
	default:
		t.Fatalf("unknown operation in %q", expr)
	}
	return a, b, op, result
}

// TestNextAnswersMatchExpression ensures every answer is the exact
// evaluation of its expression.
func TestNextAnswersMatchExpression(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 500; i++ {
		expr, answer := g.Next()
		if _, _, _, want := evalExpr(t, expr); answer != want {
			t.Fatalf("expression %q: answer %d, want %d", expr, answer, want)
		}
	}
}

// TestNextOperandConstraints ensures subtraction never goes negative and
// division always divides evenly.
func TestNextOperandConstraints(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 500; i++ {
		expr, answer := g.Next()
		a, b, op, _ := evalExpr(t, expr)

		switch op {
		case "-":
			if answer < 0 {
				t.Fatalf("negative subtraction result for %q", expr)
			}
		case "/":
			if b == 0 || a%b != 0 {
				t.Fatalf("non-integer division for %q", expr)
			}
		}
	}
}

// TestNextAvoidsRepeats ensures questions do not repeat within the
// dedup window.
func TestNextAvoidsRepeats(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)

	for i := 0; i < historyBound/2; i++ {
		expr, _ := g.Next()
		if seen[expr] {
			t.Fatalf("question %q repeated within the window", expr)
		}
		seen[expr] = true
	}
}

// TestNextSurvivesWindowReset ensures generation keeps working long past
// the dedup bound instead of looping forever on an exhausted window.
func TestNextSurvivesWindowReset(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < historyBound*10; i++ {
		expr, answer := g.Next()
		if _, _, _, want := evalExpr(t, expr); answer != want {
			t.Fatalf("expression %q: answer %d, want %d", expr, answer, want)
		}
	}
}
