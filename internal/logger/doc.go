// Package logger wraps zap for the launcher:
//   - a global sugared logger writing a console encoding to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and the -v verbosity mapping,
//   - leveled convenience functions (Infof, ErrorKV, etc.).
//
// Pipeline code takes a context and logs through it, so every stage can
// scope its logger without threading a logger argument.
package logger
