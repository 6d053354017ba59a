package vectorstore

// Driver identifies a vector store backend.
type Driver string

const (
	DriverMilvus Driver = "milvus"
	DriverQdrant Driver = "qdrant"
)

// ParseDriver validates a driver name from configuration.
func ParseDriver(name string) (Driver, error) {
	switch Driver(name) {
	case DriverMilvus, DriverQdrant:
		return Driver(name), nil
	case "":
		return DriverMilvus, nil
	}
	return "", ErrInvalidDriver
}
