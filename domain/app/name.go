package app

// Name is the binary and command name.
const Name = "ethertap"
