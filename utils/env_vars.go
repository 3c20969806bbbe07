package utils

import (
	"log"
	"os"
	"strconv"
)

type envVarType interface {
	string | int | bool
}

func parseEnv[T envVarType](name, value string) T {
	var out T
	switch ptr := any(&out).(type) {
	case *string:
		*ptr = value
	case *int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			log.Fatalf("environment variable %s is not valid: '%s' is not an integer", name, value)
		}
		*ptr = intValue
	case *bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			log.Fatalf("environment variable %s is not valid: '%s' is not a boolean", name, value)
		}
		*ptr = boolValue
	}
	return out
}

func GetEnv[T envVarType](name string, defaultValue T) T {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return defaultValue
	}
	return parseEnv[T](name, value)
}

func GetRequiredEnv[T envVarType](name string) T {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		log.Fatalf("%s environment variable is required", name)
	}
	return parseEnv[T](name, value)
}
