package environments

// Environment selects the logger preset and gin mode, read from APP_ENV.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// IsRelease reports whether the process serves real traffic.
func (e Environment) IsRelease() bool {
	return e == Production || e == Staging
}
