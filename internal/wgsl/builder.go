// Package wgsl assembles WGSL compute shaders from structured declarations:
// storage bindings, a uniform block derived from program.Uniforms, per-tensor
// index helpers and a bounds-checked entry point.
package wgsl

import (
	"fmt"
	"strings"

	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

// Access is the storage access mode of a binding.
type Access int

// Storage access modes.
const (
	Read Access = iota
	ReadWrite
)

type binding struct {
	name   string
	elem   string
	access Access
}

// Builder accumulates the parts of one compute shader.
type Builder struct {
	workgroupSize uint32
	enables       []string
	bindings      []binding
	uniforms      program.Uniforms
	helpers       []string
	body          []string
}

// New starts a shader with the given workgroup size.
func New(workgroupSize uint32) *Builder {
	return &Builder{workgroupSize: workgroupSize}
}

// ElementType maps a tensor data type to the WGSL element type of its
// storage array. Packed 4-bit data is bound as u32 words.
func ElementType(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "f32", nil
	case tensor.Float16:
		return "f16", nil
	case tensor.Int32, tensor.Int64:
		return "i32", nil
	case tensor.Int4, tensor.Uint4:
		return "u32", nil
	default:
		return "", fmt.Errorf("wgsl: no storage type for %s", dt)
	}
}

// Enable adds an "enable <ext>;" directive once.
func (b *Builder) Enable(ext string) *Builder {
	for _, e := range b.enables {
		if e == ext {
			return b
		}
	}
	b.enables = append(b.enables, ext)
	return b
}

// Storage declares the next storage binding.
func (b *Builder) Storage(name, elem string, access Access) *Builder {
	b.bindings = append(b.bindings, binding{name: name, elem: elem, access: access})
	return b
}

// Uniforms declares the uniform block, bound after every storage binding.
func (b *Builder) Uniforms(us program.Uniforms) *Builder {
	b.uniforms = us
	return b
}

// Helper appends a module-scope function.
func (b *Builder) Helper(src string) *Builder {
	b.helpers = append(b.helpers, strings.TrimSpace(src))
	return b
}

// Line appends one statement to the body of main.
func (b *Builder) Line(format string, args ...any) *Builder {
	b.body = append(b.body, fmt.Sprintf(format, args...))
	return b
}

// IndexHelpers emits <name>_indices_to_offset and <name>_offset_to_indices
// for a tensor whose shape and strides are uniforms "<name>_shape" and
// "<name>_strides". The index type is array<u32, max(rank, 1)>.
func (b *Builder) IndexHelpers(name string, rank int) *Builder {
	n := IndexLen(rank)
	if rank == 0 {
		b.Helper(fmt.Sprintf(`
fn %[1]s_indices_to_offset(idx: array<u32, 1>) -> u32 {
    return 0u;
}`, name))
		b.Helper(fmt.Sprintf(`
fn %[1]s_offset_to_indices(offset: u32) -> array<u32, 1> {
    return array<u32, 1>(0u);
}`, name))
		return b
	}
	b.Helper(fmt.Sprintf(`
fn %[1]s_indices_to_offset(idx: array<u32, %[2]d>) -> u32 {
    var offset = 0u;
    for (var i = 0u; i < %[2]du; i++) {
        offset += idx[i] * uniforms.%[1]s_strides[i / 4u][i %% 4u];
    }
    return offset;
}`, name, n))
	b.Helper(fmt.Sprintf(`
fn %[1]s_offset_to_indices(offset: u32) -> array<u32, %[2]d> {
    var idx: array<u32, %[2]d>;
    var rest = offset;
    for (var i = 0u; i < %[2]du; i++) {
        let stride = uniforms.%[1]s_strides[i / 4u][i %% 4u];
        idx[i] = rest / stride;
        rest = rest %% stride;
    }
    return idx;
}`, name, n))
	return b
}

// IndexLen is the length of the index array used for a tensor of the given rank.
func IndexLen(rank int) int {
	return max(rank, 1)
}

// Render returns the shader source. main receives global_idx and returns early when
// global_idx >= uniforms.<sizeField>.
func (b *Builder) Render(sizeField string) string {
	var sb strings.Builder
	for _, e := range b.enables {
		fmt.Fprintf(&sb, "enable %s;\n", e)
	}
	if len(b.enables) > 0 {
		sb.WriteByte('\n')
	}

	for i, bd := range b.bindings {
		mode := "read"
		if bd.access == ReadWrite {
			mode = "read_write"
		}
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var<storage, %s> %s: array<%s>;\n", i, mode, bd.name, bd.elem)
	}

	sb.WriteString("\nstruct Uniforms {\n")
	for _, u := range b.uniforms {
		if u.Type == program.U32Array {
			fmt.Fprintf(&sb, "    %s: array<vec4<u32>, %d>,\n", u.Name, u.Vec4Count())
		} else {
			fmt.Fprintf(&sb, "    %s: u32,\n", u.Name)
		}
	}
	sb.WriteString("}\n")
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> uniforms: Uniforms;\n", len(b.bindings))

	for _, h := range b.helpers {
		sb.WriteString("\n")
		sb.WriteString(h)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `
@compute @workgroup_size(%d)
fn main(@builtin(workgroup_id) workgroup_id: vec3<u32>,
        @builtin(num_workgroups) num_workgroups: vec3<u32>,
        @builtin(local_invocation_index) local_idx: u32) {
    let workgroup_index = workgroup_id.z * num_workgroups.x * num_workgroups.y +
        workgroup_id.y * num_workgroups.x + workgroup_id.x;
    let global_idx = workgroup_index * %du + local_idx;
    if (global_idx >= uniforms.%s) {
        return;
    }
`, b.workgroupSize, b.workgroupSize, sizeField)
	for _, line := range b.body {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
