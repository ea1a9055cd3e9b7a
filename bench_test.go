package mathl

import (
	"runtime"
	"testing"

	"github.com/gogpu/mathl/eval"
	"github.com/gogpu/mathl/sema"
)

// ---------------------------------------------------------------------------
// Benchmark sources at different complexity levels
// ---------------------------------------------------------------------------

// shaderSmall is a single vector add.
const shaderSmall = `
vec3 a; vec3 b; vec3 c;
void main() { c = a + b; }
`

// shaderMedium exercises swizzles, intrinsics and context-typed
// constructors.
const shaderMedium = `
in vec3 normal;
in vec2 uv;
uniform mat3 rot;
out vec4 color;

float shade(vec3 n) {
    return max(dot(n, vec3(0.0, 0.0, 1.0)), 0.0);
}

void main() {
    vec3 n = rot * normalize(normal);
    color.rgb = n * shade(n);
    color.a = 1.0;
    color.xy *= uv;
}
`

// shaderLarge has user overloads, loops and relaxed resolution.
const shaderLarge = `
uniform mat4 model;
uniform vec3 light;
in vec4 position;
in vec3 normal;
out vec4 color;

float falloff(float d) { return 1.0 / (1.0 + d * d); }
vec3 falloff(vec3 d) { return vec3(falloff(d.x), falloff(d.y), falloff(d.z)); }

float g() { return 0.5; }
vec2 g() { return vec2(0.5); }
float bias(float x) { return x + 0.01; }

vec3 tonemap(vec3 c) {
    return c / (c + vec3(1.0));
}

void main() {
    vec4 p = model * position;
    vec3 l = light - p.xyz;
    float d = length(l);
    vec3 acc = vec3(0.0);
    for (int i = 0; i < 4; i++) {
        float w = falloff(d * float(i + 1));
        acc += normalize(normal) * w;
        acc.zy -= vec2(0.001);
    }
    acc = falloff(acc);
    acc = acc * bias(g());
    if (dot(acc, acc) > 1.0) {
        acc = normalize(acc);
    } else {
        acc.x = clamp(acc.x, 0.0, 1.0);
    }
    color = vec4(tonemap(acc), 1.0);
}
`

var shadersByComplexity = []struct {
	name   string
	source string
}{
	{"small", shaderSmall},
	{"medium", shaderMedium},
	{"large", shaderLarge},
}

// ---------------------------------------------------------------------------
// Compilation benchmarks
// ---------------------------------------------------------------------------

// BenchmarkCompile benchmarks parse plus analysis grouped by source
// complexity. Reports allocations and throughput in bytes/sec.
func BenchmarkCompile(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result *sema.Unit
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile("bench.mathl", sc.source, DefaultOptions())
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileNoPrelude measures analysis without the prelude
// fragment, isolating the cost of the nested compilation.
func BenchmarkCompileNoPrelude(b *testing.B) {
	opts := DefaultOptions()
	opts.Prelude = false
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result *sema.Unit
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile("bench.mathl", sc.source, opts)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkParse benchmarks the parser alone.
func BenchmarkParse(b *testing.B) {
	source := shaderLarge
	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	var result *sema.Unit
	for i := 0; i < b.N; i++ {
		var err error
		result, err = Parse("bench.mathl", source)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
	runtime.KeepAlive(result)
}

// BenchmarkRun benchmarks executing a compiled unit.
func BenchmarkRun(b *testing.B) {
	unit, err := Compile("bench.mathl", shaderLarge, DefaultOptions())
	if err != nil {
		b.Fatalf("compile failed: %v", err)
	}
	m, err := eval.New(unit, nil)
	if err != nil {
		b.Fatalf("eval failed: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := m.Run(); err != nil {
			b.Fatalf("run failed: %v", err)
		}
	}
}
