package entities

import (
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
)

// Connection is the outgoing topology of a question: a linear successor
// for non-boolean questions, a yes/no pair for boolean ones, and a criteria
// list per slot. A zero QuestionID means the slot is unset.
type Connection struct {
	Next     valueobjects.QuestionID
	Yes      valueobjects.QuestionID
	No       valueobjects.QuestionID
	Criteria map[valueobjects.Branch][]criteria.Criterion
}

func newConnection() Connection {
	return Connection{Criteria: make(map[valueobjects.Branch][]criteria.Criterion)}
}

// Target returns the question a slot points at.
func (c Connection) Target(b valueobjects.Branch) valueobjects.QuestionID {
	switch b {
	case valueobjects.BranchYes:
		return c.Yes
	case valueobjects.BranchNo:
		return c.No
	default:
		return c.Next
	}
}

func (c *Connection) setTarget(b valueobjects.Branch, id valueobjects.QuestionID) {
	switch b {
	case valueobjects.BranchYes:
		c.Yes = id
	case valueobjects.BranchNo:
		c.No = id
	default:
		c.Next = id
	}
}

// IsEmpty reports whether no slot is populated.
func (c Connection) IsEmpty() bool {
	return c.Next.IsZero() && c.Yes.IsZero() && c.No.IsZero()
}

func (c Connection) clone() Connection {
	cp := Connection{
		Next:     c.Next,
		Yes:      c.Yes,
		No:       c.No,
		Criteria: make(map[valueobjects.Branch][]criteria.Criterion, len(c.Criteria)),
	}
	for b, list := range c.Criteria {
		cp.Criteria[b] = criteria.CloneList(list)
	}
	return cp
}
