// Package pddl models typed first-order planning vocabulary: types, instances,
// predicates, expressions, facts, actions and plan tasks.
//
// Expressions are trees of Compound nodes over Instance leaves. A ground
// compound whose word is not an operator is a fact; Fact is its flat,
// set-friendly form. Utilities convert effects into fact deltas, substitute
// parameters, simplify trees and evaluate conditions against a set of facts.
// The textual forms produced by String and Declaration follow PDDL syntax.
package pddl
