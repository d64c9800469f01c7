package operators

// AttributeInt is the AttributeProto type of an INT attribute.
const AttributeInt = 2

// Node represents an ONNX operation node.
type Node struct {
	Name       string      // Node name (optional)
	OpType     string      // Operation type (e.g., "GatherBlockQuantized")
	Domain     string      // Operator domain (empty for the default domain)
	Inputs     []string    // Input tensor names
	Outputs    []string    // Output tensor names
	Attributes []Attribute // Operation attributes
}

// Attribute represents a node attribute.
type Attribute struct {
	Name string // Attribute name
	Type int32  // Attribute type
	I    int64  // INT value
}

// IntAttr returns an INT attribute.
func IntAttr(name string, v int64) Attribute {
	return Attribute{Name: name, Type: AttributeInt, I: v}
}

// GetAttrInt returns an integer attribute or default value.
func GetAttrInt(node *Node, name string, defaultVal int64) int64 {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return node.Attributes[i].I
		}
	}
	return defaultVal
}
