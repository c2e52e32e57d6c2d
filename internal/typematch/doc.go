// Package typematch decides whether an output slot type may connect to an
// input slot type.
//
// Types are written in a small grammar:
//
//	Name               bare names: str, int, ModelConfig
//	Schema.Model       dotted qualified names
//	Optional[T]        optional wrapper
//	Union[T1, T2]      union, also written T1|T2
//	List[T], Dict[K,V] generic containers
//	Literal["a", "b"]  string literals, matched as str
//
// The matcher is a pure function of its alias table and wildcard set. It never
// panics and never returns an error: an unparseable expression falls back to
// plain string comparison, and a mismatch is reported as false so the caller
// decides how to surface it.
package typematch
