// Package migration produces long-form migration guidance and short code
// samples for breaking changes. Output is purely templated from the
// change's stored fields; no document analysis happens here.
package migration

import (
	"fmt"
	"strings"

	"github.com/contractguard/contractguard/pkg/diff"
)

// Generator renders migration guides and code examples per change type.
type Generator struct{}

// NewGenerator creates a migration guide generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Guide renders the full migration guide for a change. deprecationPath is
// optional context appended to the fallback guide when the change type is
// outside the known taxonomy.
func (g *Generator) Guide(change diff.Change, deprecationPath string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Migration Guide for %s\n\n", change.Type)
	fmt.Fprintf(&b, "Change Type: %s\n", change.Type)
	fmt.Fprintf(&b, "Severity: %s\n", change.Severity)
	fmt.Fprintf(&b, "Description: %s\n\n", change.Description)

	switch change.Type {
	case diff.EndpointRemoved:
		g.endpointRemovedGuide(&b, change)
	case diff.MethodRemoved:
		g.methodRemovedGuide(&b, change)
	case diff.FieldRemoved:
		g.fieldRemovedGuide(&b, change)
	case diff.TypeChanged:
		g.typeChangedGuide(&b, change)
	case diff.FieldRequired:
		g.fieldRequiredGuide(&b, change)
	case diff.SchemaRemoved:
		g.schemaRemovedGuide(&b, change)
	default:
		g.defaultGuide(&b, change, deprecationPath)
	}

	return b.String()
}

func (g *Generator) endpointRemovedGuide(b *strings.Builder, change diff.Change) {
	b.WriteString("Action Required:\n")
	fmt.Fprintf(b, "1. Identify all consumers using endpoint %s\n", change.AffectedEndpoint)
	b.WriteString("2. Update consumer applications to use alternative endpoints\n")
	b.WriteString("3. Implement request routing/fallback logic if necessary\n")
	b.WriteString("4. Test thoroughly in staging environment\n")
	b.WriteString("5. Deploy to production with monitoring enabled\n\n")

	b.WriteString("Deprecation Timeline:\n")
	b.WriteString("- Immediate: Endpoint still available but returns 410 Gone with deprecation notice\n")
	b.WriteString("- Week 1: Send notifications to all consumers\n")
	b.WriteString("- Week 2-3: Provide support and monitoring\n")
	b.WriteString("- Week 4: Complete removal after all consumers migrated\n")
}

func (g *Generator) methodRemovedGuide(b *strings.Builder, change diff.Change) {
	method := strings.ToUpper(change.AffectedField)

	b.WriteString("Action Required:\n")
	fmt.Fprintf(b, "1. Identify all consumers using the %s method on %s\n", method, change.AffectedEndpoint)
	b.WriteString("2. Suggest alternative HTTP methods or endpoints\n")
	b.WriteString("3. Update client libraries and documentation\n")
	b.WriteString("4. Verify backward compatibility with existing clients\n\n")

	b.WriteString("Code Changes Example:\n")
	b.WriteString("// Old Code:\n")
	fmt.Fprintf(b, "const response = await fetch('%s', {\n", change.AffectedEndpoint)
	fmt.Fprintf(b, "  method: '%s'\n", method)
	b.WriteString("});\n\n")
	b.WriteString("// New Code:\n")
	fmt.Fprintf(b, "const response = await fetch('%s', {\n", change.AffectedEndpoint)
	b.WriteString("  method: 'GET'  // Use GET instead\n")
	b.WriteString("});\n")
}

func (g *Generator) fieldRemovedGuide(b *strings.Builder, change diff.Change) {
	b.WriteString("Action Required:\n")
	fmt.Fprintf(b, "1. Update all code that depends on field '%s'\n", change.AffectedField)
	b.WriteString("2. Use alternative fields if available\n")
	b.WriteString("3. Add fallback logic for backward compatibility\n")
	b.WriteString("4. Test JSON parsing and null handling\n\n")

	b.WriteString("Code Changes Example:\n")
	b.WriteString("// Old Code:\n")
	fmt.Fprintf(b, "const value = response.%s;\n\n", change.AffectedField)
	b.WriteString("// New Code:\n")
	b.WriteString("const value = response.newFieldName || response.fallbackField;\n")
}

func (g *Generator) typeChangedGuide(b *strings.Builder, change diff.Change) {
	b.WriteString("Action Required:\n")
	b.WriteString("1. Update type declarations in your code\n")
	b.WriteString("2. Add type conversion/validation logic\n")
	b.WriteString("3. Handle both old and new types during transition\n")
	b.WriteString("4. Update API client code generation\n\n")

	b.WriteString("Code Changes Example:\n")
	fmt.Fprintf(b, "// Old Code (expects %s):\n", change.OldValue)
	fmt.Fprintf(b, "const %s = response.%s;\n\n", change.AffectedField, change.AffectedField)
	fmt.Fprintf(b, "// New Code (now %s):\n", change.NewValue)
	fmt.Fprintf(b, "const %s = convert(response.%s);\n", change.AffectedField, change.AffectedField)
}

func (g *Generator) fieldRequiredGuide(b *strings.Builder, change diff.Change) {
	b.WriteString("Action Required:\n")
	fmt.Fprintf(b, "1. Ensure all requests include field '%s'\n", change.AffectedField)
	b.WriteString("2. Add validation to require this field in requests\n")
	b.WriteString("3. Update request builders and factories\n")
	b.WriteString("4. Handle missing field cases in error handling\n\n")

	b.WriteString("Code Changes Example:\n")
	b.WriteString("// Old Code (field optional):\n")
	b.WriteString("const request = { name: 'John' };\n\n")
	b.WriteString("// New Code (field required):\n")
	fmt.Fprintf(b, "const request = { name: 'John', %s: 'required_value' };\n", change.AffectedField)
}

func (g *Generator) schemaRemovedGuide(b *strings.Builder, change diff.Change) {
	b.WriteString("Action Required:\n")
	fmt.Fprintf(b, "1. Stop using schema '%s' in your code\n", change.SchemaName)
	b.WriteString("2. Migrate to alternative schema\n")
	b.WriteString("3. Update generated model classes\n")
	b.WriteString("4. Update all references throughout codebase\n\n")

	b.WriteString("Migration Steps:\n")
	fmt.Fprintf(b, "1. Search for all imports/uses of %s\n", change.SchemaName)
	b.WriteString("2. Replace with new schema name\n")
	b.WriteString("3. Update type definitions\n")
	b.WriteString("4. Run type checker to find remaining issues\n")
}

func (g *Generator) defaultGuide(b *strings.Builder, change diff.Change, deprecationPath string) {
	b.WriteString("General Migration Steps:\n")
	fmt.Fprintf(b, "1. Review the change: %s\n", change.Description)
	b.WriteString("2. Identify affected code in your application\n")
	b.WriteString("3. Make necessary code changes\n")
	b.WriteString("4. Test thoroughly in staging\n")
	b.WriteString("5. Deploy to production with monitoring\n")

	if deprecationPath != "" {
		fmt.Fprintf(b, "\nDeprecation Path: %s\n", deprecationPath)
	}
}

// CodeExample renders a short illustrative snippet for the change types
// where one helps; other types point at the guide.
func (g *Generator) CodeExample(change diff.Change) string {
	var b strings.Builder

	switch change.Type {
	case diff.EndpointRemoved:
		b.WriteString("// Old endpoint no longer available\n")
		fmt.Fprintf(&b, "// fetch('%s')  // this will fail\n\n", change.AffectedEndpoint)
		b.WriteString("// Use new endpoint instead:\n")
		b.WriteString("fetch('/api/v2/new-endpoint')\n")

	case diff.FieldRemoved:
		b.WriteString("// Before:\n")
		b.WriteString("const data = {\n")
		b.WriteString("  id: 1,\n")
		fmt.Fprintf(&b, "  %s: 'value'  // this field is removed\n", change.AffectedField)
		b.WriteString("};\n\n")
		b.WriteString("// After:\n")
		b.WriteString("const data = {\n")
		b.WriteString("  id: 1,\n")
		b.WriteString("  // Use alternative field instead\n")
		b.WriteString("};\n")

	case diff.TypeChanged:
		b.WriteString("// Type conversion needed\n")
		if change.OldValue != "" || change.NewValue != "" {
			fmt.Fprintf(&b, "// Before: %s\n", change.OldValue)
			fmt.Fprintf(&b, "// After: %s\n", change.NewValue)
		} else {
			b.WriteString("// Check migration guide for type details\n")
		}

	default:
		b.WriteString("See migration guide above for code changes\n")
	}

	return b.String()
}
