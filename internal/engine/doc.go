// Package engine decides whether an awning can be built at a requested size
// and prices it.
//
// Every function works on an immutable *catalog.Catalog passed in by the
// caller, so calls are independent and safe to run concurrently. Expected
// business outcomes (below minimum width, dead zones, missing price tiers)
// come back as *Failure errors.
//
// Lengths are millimetres throughout. EvaluateSafetyCm is the only entry
// point taking centimetres.
package engine
