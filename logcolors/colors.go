package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache and store log prefixes
const (
	LogStore    = Blue + "[Store]" + Reset
	LogCache    = Blue + "[Cache]" + Reset
	LogArtwork  = Cyan + "[Cache:Artwork]" + Reset
	LogIdentity = Cyan + "[Cache:Identity]" + Reset
)

// Resolution pipeline log prefixes
const (
	LogResolve    = Purple + "[Resolve]" + Reset
	LogSearch     = Blue + "[Search]" + Reset
	LogMatch      = Green + "[Match]" + Reset
	LogCandidates = Cyan + "[Candidates]" + Reset
	LogSelection  = Cyan + "[Selection]" + Reset
	LogNameFix    = Purple + "[NameFix]" + Reset
)

// Playback log prefixes
const (
	LogScheduler = Green + "[Scheduler]" + Reset
	LogPlayer    = Blue + "[Player]" + Reset
	LogNotify    = Cyan + "[Notify]" + Reset
)

// Server/infra log prefixes
const (
	LogServer         = Green + "[Server]" + Reset
	LogConfig         = Cyan + "[Config]" + Reset
	LogStats          = Blue + "[Stats]" + Reset
	LogRateLimit      = Purple + "[RateLimit]" + Reset
	LogCircuitBreaker = Purple + "[CircuitBreaker]" + Reset
)

// Provider returns a colored provider name for log messages.
func Provider(name string) string {
	return Purple + "[" + name + "]" + Reset
}

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the
// given name.
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
