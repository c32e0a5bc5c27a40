// Package solver turns model.Model values into solutions. PBSolver is the
// in-process engine: integer variables are binary encoded, linear
// constraints become pseudo-boolean constraints, and the objective is
// tightened one solution at a time.
package solver
