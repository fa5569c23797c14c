package ip

type Contract interface {
	LinkSetAlias(devName string, alias string) error
	LinkDelete(devName string) error
	AddrAddDev(devName string, cidr string) error
	AddrDelDev(devName string, cidr string) error
	// AddrShowDev lists every address of devName in CIDR notation.
	AddrShowDev(devName string) ([]string, error)
}
