package formatter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kataras/design-rule/pkg/extractor"
)

// Role colors used when the palette is shorter than four entries.
const (
	defaultPrimary   = "#3498db"
	defaultSecondary = "#2ecc71"
	defaultDanger    = "#e74c3c"
	defaultWarning   = "#f39c12"
	defaultNeutral   = "#ddd"
	defaultFont      = "Roboto"
)

// Scale values used by the component styles when a record carries fewer entries than a
// rule references.
var (
	defaultSpacing      = []float64{4, 8, 16, 24, 32, 48}
	defaultBorderRadius = []float64{0, 4, 8, 16, 24}
	defaultFontSizes    = []float64{12, 14, 16, 18, 24, 32, 48}
	defaultFontWeights  = []float64{400, 500, 700}
)

// ColorRoles assigns semantic roles to a ranked palette: the first four colors become
// primary, secondary, danger and warning, the rest are neutrals.
type ColorRoles struct {
	Primary   string
	Secondary string
	Danger    string
	Warning   string
	Neutrals  []string
}

// RolesOf derives the color roles of a palette, defaulting every missing slot.
func RolesOf(colors []string) ColorRoles {
	roles := ColorRoles{
		Primary:   colorAt(colors, 0, defaultPrimary),
		Secondary: colorAt(colors, 1, defaultSecondary),
		Danger:    colorAt(colors, 2, defaultDanger),
		Warning:   colorAt(colors, 3, defaultWarning),
		Neutrals:  []string{},
	}
	if len(colors) > 4 {
		roles.Neutrals = append(roles.Neutrals, colors[4:]...)
	}
	return roles
}

// ToMarkdown renders the design rule document: the design system JSON, the component
// CSS and fixed usage guidelines. The output depends only on elements.
func ToMarkdown(elements *extractor.DesignElements) string {
	var sb strings.Builder

	sb.WriteString("# Cursor Design Rule\n")
	sb.WriteString("# Generated from design image analysis\n\n")

	sb.WriteString("## Design System\n")
	sb.WriteString("```json\n")
	sb.WriteString(DesignSystem(elements))
	sb.WriteString("\n```\n\n")

	sb.WriteString("## Component Styles\n")
	sb.WriteString("```css\n")
	sb.WriteString(ComponentStyles(elements))
	sb.WriteString("\n```\n\n")

	sb.WriteString("## Design Guidelines\n")
	sb.WriteString("1. Use the color palette consistently across the UI\n")
	sb.WriteString("2. Maintain spacing rhythm using the specified spacing values\n")
	sb.WriteString("3. Use the font families and font sizes from the typography system\n")
	sb.WriteString("4. Maintain consistent border radius for components\n")
	sb.WriteString("5. Use the component styles as a reference for UI implementation\n\n")

	sb.WriteString("## Component Usage\n")
	sb.WriteString("- Buttons: Use primary color for main actions, secondary for alternative actions\n")
	sb.WriteString("- Inputs: Maintain consistent padding and border radius\n")
	sb.WriteString("- Typography: Follow the heading hierarchy and font sizes\n")
	sb.WriteString("- Cards: Use consistent shadow and border radius\n\n")

	sb.WriteString("## Implementation Notes\n")
	sb.WriteString("- Use responsive design principles while maintaining the design language\n")
	sb.WriteString("- Ensure adequate contrast for accessibility\n")
	sb.WriteString("- Maintain consistent component spacing throughout the UI\n")

	return sb.String()
}

// DesignSystem renders the design elements as a JSON object with semantic color roles.
// Arrays are written on a single line.
func DesignSystem(elements *extractor.DesignElements) string {
	roles := RolesOf(elements.Colors)
	typo := elements.Typography

	var sb strings.Builder

	sb.WriteString("{\n")
	sb.WriteString("  \"colors\": {\n")
	sb.WriteString(fmt.Sprintf("    \"primary\": %s,\n", jsonString(roles.Primary)))
	sb.WriteString(fmt.Sprintf("    \"secondary\": %s,\n", jsonString(roles.Secondary)))
	sb.WriteString(fmt.Sprintf("    \"danger\": %s,\n", jsonString(roles.Danger)))
	sb.WriteString(fmt.Sprintf("    \"warning\": %s,\n", jsonString(roles.Warning)))
	sb.WriteString(fmt.Sprintf("    \"neutrals\": [%s]\n", joinStrings(roles.Neutrals)))
	sb.WriteString("  },\n")
	sb.WriteString("  \"typography\": {\n")
	sb.WriteString(fmt.Sprintf("    \"fontFamily\": [%s],\n", joinStrings(typo.FontFamily)))
	sb.WriteString(fmt.Sprintf("    \"fontSizes\": [%s],\n", joinNumbers(typo.FontSizes)))
	sb.WriteString(fmt.Sprintf("    \"fontWeights\": [%s]\n", joinNumbers(typo.FontWeights)))
	sb.WriteString("  },\n")
	sb.WriteString(fmt.Sprintf("  \"spacing\": [%s],\n", joinNumbers(elements.Spacing)))
	sb.WriteString(fmt.Sprintf("  \"borderRadius\": [%s]\n", joinNumbers(elements.BorderRadius)))
	sb.WriteString("}")

	return sb.String()
}

// ComponentStyles renders CSS rules for buttons, inputs, cards, headings and paragraphs.
// Values are picked by fixed position from the spacing, radius and type scales.
func ComponentStyles(elements *extractor.DesignElements) string {
	roles := RolesOf(elements.Colors)

	mainFont := defaultFont
	if len(elements.Typography.FontFamily) > 0 {
		mainFont = elements.Typography.FontFamily[0]
	}
	neutral := colorAt(roles.Neutrals, 0, defaultNeutral)

	space := func(i int) string { return numberAt(elements.Spacing, defaultSpacing, i) }
	radius := func(i int) string { return numberAt(elements.BorderRadius, defaultBorderRadius, i) }
	size := func(i int) string { return numberAt(elements.Typography.FontSizes, defaultFontSizes, i) }
	weight := func(i int) string { return numberAt(elements.Typography.FontWeights, defaultFontWeights, i) }

	var sb strings.Builder

	sb.WriteString("\n  /* Button styles */\n")
	sb.WriteString("  .button {\n")
	sb.WriteString(fmt.Sprintf("    background-color: %s;\n", roles.Primary))
	sb.WriteString("    color: #ffffff;\n")
	sb.WriteString(fmt.Sprintf("    padding: %spx %spx;\n", space(1), space(2)))
	sb.WriteString(fmt.Sprintf("    border-radius: %spx;\n", radius(1)))
	sb.WriteString(fmt.Sprintf("    font-family: %s, sans-serif;\n", mainFont))
	sb.WriteString(fmt.Sprintf("    font-weight: %s;\n", weight(1)))
	sb.WriteString(fmt.Sprintf("    font-size: %spx;\n", size(2)))
	sb.WriteString("    border: none;\n")
	sb.WriteString("    cursor: pointer;\n")
	sb.WriteString("    transition: background-color 0.3s ease;\n")
	sb.WriteString("  }\n\n")

	sb.WriteString("  .button:hover {\n")
	sb.WriteString(fmt.Sprintf("    background-color: %s;\n", AdjustBrightness(roles.Primary, -15)))
	sb.WriteString("  }\n\n")

	sb.WriteString("  .button.secondary {\n")
	sb.WriteString(fmt.Sprintf("    background-color: %s;\n", roles.Secondary))
	sb.WriteString("  }\n\n")

	sb.WriteString("  .button.secondary:hover {\n")
	sb.WriteString(fmt.Sprintf("    background-color: %s;\n", AdjustBrightness(roles.Secondary, -15)))
	sb.WriteString("  }\n\n")

	sb.WriteString("  /* Card styles */\n")
	sb.WriteString("  .card {\n")
	sb.WriteString("    background-color: #ffffff;\n")
	sb.WriteString(fmt.Sprintf("    border-radius: %spx;\n", radius(2)))
	sb.WriteString(fmt.Sprintf("    padding: %spx;\n", space(3)))
	sb.WriteString(fmt.Sprintf("    box-shadow: 0 %spx %spx rgba(0, 0, 0, 0.1);\n", space(0), space(2)))
	sb.WriteString("  }\n\n")

	sb.WriteString("  /* Input styles */\n")
	sb.WriteString("  .input {\n")
	sb.WriteString(fmt.Sprintf("    padding: %spx %spx;\n", space(1), space(2)))
	sb.WriteString(fmt.Sprintf("    border-radius: %spx;\n", radius(1)))
	sb.WriteString(fmt.Sprintf("    border: 1px solid %s;\n", neutral))
	sb.WriteString(fmt.Sprintf("    font-family: %s, sans-serif;\n", mainFont))
	sb.WriteString(fmt.Sprintf("    font-size: %spx;\n", size(1)))
	sb.WriteString("  }\n\n")

	sb.WriteString("  .input:focus {\n")
	sb.WriteString(fmt.Sprintf("    border-color: %s;\n", roles.Primary))
	sb.WriteString("    outline: none;\n")
	sb.WriteString("  }\n\n")

	sb.WriteString("  /* Typography styles */\n")
	sb.WriteString("  h1, h2, h3, h4, h5, h6 {\n")
	sb.WriteString(fmt.Sprintf("    font-family: %s, sans-serif;\n", mainFont))
	sb.WriteString(fmt.Sprintf("    font-weight: %s;\n", weight(2)))
	sb.WriteString(fmt.Sprintf("    margin-bottom: %spx;\n", space(2)))
	sb.WriteString("  }\n\n")

	sb.WriteString(fmt.Sprintf("  h1 { font-size: %spx; }\n", size(6)))
	sb.WriteString(fmt.Sprintf("  h2 { font-size: %spx; }\n", size(5)))
	sb.WriteString(fmt.Sprintf("  h3 { font-size: %spx; }\n\n", size(4)))

	sb.WriteString("  p {\n")
	sb.WriteString(fmt.Sprintf("    font-family: %s, sans-serif;\n", mainFont))
	sb.WriteString(fmt.Sprintf("    font-size: %spx;\n", size(2)))
	sb.WriteString("    line-height: 1.5;\n")
	sb.WriteString("  }")

	return sb.String()
}

func colorAt(colors []string, i int, fallback string) string {
	if i < len(colors) && colors[i] != "" {
		return colors[i]
	}
	return fallback
}

func numberAt(values, fallback []float64, i int) string {
	if i < len(values) {
		return formatNumber(values[i])
	}
	return formatNumber(fallback[i])
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNumbers(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ", ")
}

func joinStrings(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = jsonString(v)
	}
	return strings.Join(parts, ", ")
}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
