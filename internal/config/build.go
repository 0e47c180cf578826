package config

import "fmt"

type BuildType int

const (
	RELEASE BuildType = iota
	DEBUG
)

func (bt BuildType) String() string {
	switch bt {
	case RELEASE:
		return "release"
	case DEBUG:
		return "debug"
	}
	return "unknown"
}

// OptLevel is the optimization flag passed to opt and clang.
func (bt BuildType) OptLevel() string {
	if bt == RELEASE {
		return "-O3"
	}
	return "-O0"
}

func ParseBuildType(flag string) (BuildType, error) {
	switch flag {
	case "-release", "release":
		return RELEASE, nil
	case "-debug", "debug":
		return DEBUG, nil
	}
	return DEBUG, fmt.Errorf("unknown build type %q, expected -release or -debug", flag)
}

var DEV bool

// SetDevMode turns on debug logging across the tool.
func SetDevMode(dev bool) { DEV = dev }
