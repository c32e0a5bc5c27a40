// Package model builds solver-independent integer constraint models:
// bounded integer and boolean variables, linear (in)equalities optionally
// enforced by literals of either polarity, and a minimize and/or maximize
// objective. A validated Model is handed to a solver.Solver.
package model
