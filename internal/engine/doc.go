// Package engine drives one simulated life from birth to death.
//
// The engine owns a run: the five tracked stats with their historical
// extrema, the active talents and their execution counters, the alive flag,
// and the event sets of the run and of the current tick. It reads the
// compiled Tables and mutates the caller's Statistics in memory.
//
// ARCHITECTURE:
//
// State Machine:
//
//	BIRTH (age -1)  talents, START achievements, one tick
//	ALIVE (loop)    age+1, talents, one event chain, TRAJECTORY achievements, one tick
//	DEAD            End(): END achievements, overall score, judgments
//
// Per-tick Data Flow:
//  1. StatTracker state is folded into a fresh condition.Env
//  2. Active talents fire in the caller's order; every firing rebuilds the Env
//     before the next talent is checked
//  3. One event is drawn for the age and its branch chain is followed; every
//     applied event rebuilds the Env
//  4. Achievements of the phase are checked against the final Env
//  5. The tick is yielded to the caller
//
// Progress is a lazy, forward-only iter.Seq2. It is bound to one run and
// cannot be restarted; a new run needs a new Engine.
//
// CRITICAL PATTERNS:
//
// Determinism:
// One Random stream per engine, seeded explicitly or derived once. Identical
// seed, selection, starting stats, Statistics and Tables yield an identical
// trajectory, which Replay verifies through the trajectory digest.
//
// Declared Order:
// Active talents keep the order fixed by SetTalents. Achievements are scanned
// in table order. Age entries and branches are considered in declared order.
//
// Read-only Evaluation:
// The Env is rebuilt after every mutation, never patched. Conditions see a
// snapshot and cannot change run state.
package engine
