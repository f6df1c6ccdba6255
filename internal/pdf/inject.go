package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonathan/resume-tailor/internal/constraints"
	"github.com/jonathan/resume-tailor/internal/types"
)

// target is one block scheduled for replacement on a page
type target struct {
	blockID   string
	rect      types.Rect
	baseline  float64
	fontSize  float64
	fontName  string
	finalText string
}

// Inject produces a new PDF by appending an incremental update to the
// original bytes: the affected page content streams are re-encoded with the
// original glyphs for each block's region removed, masked with a white fill,
// and overlaid with the replacement text at the same baseline. The original
// bytes are preserved as the prefix of the output and are never mutated.
func (e *Engine) Inject(container []byte, blocks []types.Block, mapping map[string]string) (*types.InjectResult, error) {
	targets, degraded, err := collectTargets(blocks, mapping)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		out := make([]byte, len(container))
		copy(out, container)
		return &types.InjectResult{Bytes: out}, nil
	}

	if err := revalidateAnchors(container, blocks, mapping); err != nil {
		return nil, err
	}

	file, err := parseFile(container)
	if err != nil {
		return nil, err
	}

	update := newUpdate(file)
	for pageIndex, pageTargets := range targets {
		if pageIndex >= len(file.pages) {
			return nil, &types.UnsupportedStructureError{
				BlockID: pageTargets[0].blockID,
				Message: fmt.Sprintf("anchor references page %d of a %d-page document", pageIndex+1, len(file.pages)),
			}
		}
		if err := update.rewritePage(file.pages[pageIndex], pageTargets); err != nil {
			return nil, err
		}
	}

	return &types.InjectResult{Bytes: update.assemble(container), DegradedFidelity: degraded}, nil
}

// collectTargets groups mapped blocks by page, checks anchor overlap, and
// resolves the substitute font for each. Blocks mapped to their original
// text are no-ops and are skipped.
func collectTargets(blocks []types.Block, mapping map[string]string) (map[int][]target, bool, error) {
	targets := make(map[int][]target)
	degraded := false

	for i := range blocks {
		block := &blocks[i]
		finalText, ok := mapping[block.ID]
		if !ok || finalText == block.OriginalText {
			continue
		}
		if block.PDF == nil {
			return nil, false, &types.UnsupportedStructureError{BlockID: block.ID, Message: "block has no PDF anchor"}
		}
		_, d := mapFont(block.PDF.FontName)
		degraded = degraded || d

		// Guard against uncontrolled reflow even if the orchestrator let an
		// over-long candidate through
		finalText = constraints.Truncate(block.OriginalText, finalText, constraints.DefaultTolerance)

		targets[block.PDF.Page] = append(targets[block.PDF.Page], target{
			blockID:   block.ID,
			rect:      block.PDF.Rect,
			baseline:  block.PDF.Baseline,
			fontSize:  block.PDF.FontSize,
			fontName:  block.PDF.FontName,
			finalText: finalText,
		})
	}

	for _, pageTargets := range targets {
		for i := range pageTargets {
			for j := i + 1; j < len(pageTargets); j++ {
				if pageTargets[i].rect.Intersects(pageTargets[j].rect) {
					return nil, false, &types.AnchorConflictError{
						BlockA: pageTargets[i].blockID,
						BlockB: pageTargets[j].blockID,
					}
				}
			}
		}
	}
	return targets, degraded, nil
}

// revalidateAnchors confirms each mapped block's original text is still
// present at its anchored position, detecting containers altered between
// extraction and injection.
func revalidateAnchors(container []byte, blocks []types.Block, mapping map[string]string) error {
	reader, err := pdf.NewReader(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return &types.MalformedContainerError{Format: types.FormatPDF, Message: "cannot reopen PDF", Cause: err}
	}

	linesByPage := make(map[int][]line)
	for i := range blocks {
		block := &blocks[i]
		if _, ok := mapping[block.ID]; !ok || block.PDF == nil {
			continue
		}
		page := block.PDF.Page
		if _, cached := linesByPage[page]; !cached {
			if page+1 > reader.NumPage() {
				return &types.UnsupportedStructureError{BlockID: block.ID, Message: "anchored page no longer exists"}
			}
			content, err := pageContent(reader.Page(page + 1))
			if err != nil {
				return err
			}
			linesByPage[page] = clusterLines(page, content)
		}

		found := false
		for _, ln := range linesByPage[page] {
			if math.Abs(ln.baseline-block.PDF.Baseline) <= 1.0 && strings.TrimSpace(ln.text) == block.OriginalText {
				found = true
				break
			}
		}
		if !found {
			return &types.UnsupportedStructureError{
				BlockID: block.ID,
				Message: "anchor text no longer matches; container changed after extraction",
			}
		}
	}
	return nil
}

// rawObject is one indirect object located in the original file
type rawObject struct {
	num    int
	body   []byte // between "N G obj" and "endobj"
	stream []byte // raw stream data, nil for non-stream objects
}

// parsedFile is the minimal raw view of a PDF needed for injection: the
// object table, the ordered page object numbers, and trailer bookkeeping.
type parsedFile struct {
	objects       map[int]*rawObject
	pages         []int // object numbers in page-tree order
	resources     map[int]string
	rootRef       int
	maxObjNum     int
	prevStartXref int
}

var (
	objHeaderPattern = regexp.MustCompile(`(?m)^\s*(\d+)\s+(\d+)\s+obj\b`)
	rootPattern      = regexp.MustCompile(`/Root\s+(\d+)\s+\d+\s+R`)
	startXrefPattern = regexp.MustCompile(`startxref\s+(\d+)`)
)

// parseFile scans the raw bytes for indirect objects and walks the page tree.
// Later definitions of an object number (earlier incremental updates) win.
func parseFile(container []byte) (*parsedFile, error) {
	file := &parsedFile{
		objects:   make(map[int]*rawObject),
		resources: make(map[int]string),
		rootRef:   -1,
	}

	headers := objHeaderPattern.FindAllSubmatchIndex(container, -1)
	if len(headers) == 0 {
		return nil, &types.MalformedContainerError{Format: types.FormatPDF, Message: "no indirect objects found"}
	}
	for _, h := range headers {
		num, _ := strconv.Atoi(string(container[h[2]:h[3]]))
		bodyStart := h[1]
		end := bytes.Index(container[bodyStart:], []byte("endobj"))
		if end < 0 {
			continue
		}
		body := container[bodyStart : bodyStart+end]
		obj := &rawObject{num: num, body: body}
		if streamStart := bytes.Index(body, []byte("stream")); streamStart >= 0 {
			data := body[streamStart+len("stream"):]
			data = bytes.TrimPrefix(data, []byte("\r\n"))
			data = bytes.TrimPrefix(data, []byte("\n"))
			if streamEnd := bytes.LastIndex(data, []byte("endstream")); streamEnd >= 0 {
				obj.stream = bytes.TrimRight(data[:streamEnd], "\r\n")
				obj.body = body[:streamStart]
			}
		}
		file.objects[num] = obj
		if num > file.maxObjNum {
			file.maxObjNum = num
		}
	}

	if m := lastSubmatch(rootPattern, container); m != "" {
		file.rootRef, _ = strconv.Atoi(m)
	}
	if file.rootRef < 0 {
		return nil, &types.MalformedContainerError{Format: types.FormatPDF, Message: "no document catalog reference"}
	}
	if m := lastSubmatch(startXrefPattern, container); m != "" {
		file.prevStartXref, _ = strconv.Atoi(m)
	}

	root := file.objects[file.rootRef]
	if root == nil {
		return nil, &types.UnsupportedStructureError{Message: "document catalog stored in an object stream"}
	}
	pagesRef, ok := dictRef(string(root.body), "Pages")
	if !ok {
		return nil, &types.MalformedContainerError{Format: types.FormatPDF, Message: "catalog has no page tree"}
	}
	if err := file.walkPages(pagesRef, "", 0); err != nil {
		return nil, err
	}
	return file, nil
}

// walkPages descends the page tree in order, recording page object numbers
// and the /Resources each page inherits.
func (f *parsedFile) walkPages(num int, inheritedResources string, depth int) error {
	if depth > 32 {
		return &types.MalformedContainerError{Format: types.FormatPDF, Message: "page tree too deep"}
	}
	obj := f.objects[num]
	if obj == nil {
		return &types.UnsupportedStructureError{Message: fmt.Sprintf("page tree node %d not found (object streams are not supported)", num)}
	}
	body := string(obj.body)

	resources := inheritedResources
	if res, ok := dictValue(body, "Resources"); ok {
		resources = res
	}

	if strings.Contains(body, "/Kids") {
		for _, kid := range dictRefArray(body, "Kids") {
			if err := f.walkPages(kid, resources, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	f.pages = append(f.pages, num)
	f.resources[num] = resources
	return nil
}

// lastSubmatch returns the first capture of the pattern's last match
func lastSubmatch(re *regexp.Regexp, data []byte) string {
	matches := re.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return ""
	}
	return string(matches[len(matches)-1][1])
}

var (
	refPatternCache   = map[string]*regexp.Regexp{}
	valuePatternCache = map[string]*regexp.Regexp{}
)

// dictRef extracts an indirect reference value for a dictionary key
func dictRef(body, key string) (int, bool) {
	re, ok := refPatternCache[key]
	if !ok {
		re = regexp.MustCompile(`/` + key + `\s+(\d+)\s+\d+\s+R`)
		refPatternCache[key] = re
	}
	if m := re.FindStringSubmatch(body); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// dictRefArray extracts the references of an array-valued dictionary key
func dictRefArray(body, key string) []int {
	idx := strings.Index(body, "/"+key)
	if idx < 0 {
		return nil
	}
	rest := body[idx+len(key)+1:]
	if !strings.HasPrefix(strings.TrimLeft(rest, " \t\r\n"), "[") {
		return nil
	}
	open := strings.IndexByte(body[idx:], '[')
	closeIdx := strings.IndexByte(body[idx+open:], ']')
	if closeIdx < 0 {
		return nil
	}
	inner := body[idx+open+1 : idx+open+closeIdx]

	var refs []int
	fields := strings.Fields(inner)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i+2] != "R" {
			continue
		}
		if n, err := strconv.Atoi(fields[i]); err == nil {
			refs = append(refs, n)
			i += 2
		}
	}
	return refs
}

// dictValue extracts a dictionary key's value: either "N 0 R" for a
// reference or the balanced "<<...>>" text for an inline dictionary.
func dictValue(body, key string) (string, bool) {
	if n, ok := dictRef(body, key); ok {
		return fmt.Sprintf("%d 0 R", n), true
	}
	idx := strings.Index(body, "/"+key)
	if idx < 0 {
		return "", false
	}
	rest := body[idx+len(key)+1:]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(trimmed, "<<") {
		return "", false
	}
	offset := len(rest) - len(trimmed)
	end, err := balancedEnd([]byte(rest), offset, "<<", ">>")
	if err != nil {
		return "", false
	}
	return rest[offset:end], true
}

// update accumulates the replacement and new objects of one incremental
// update section.
type update struct {
	file     *parsedFile
	changed  map[int][]byte // object number -> full body (dict [+ stream])
	nextNum  int
	fontRefs map[string]int // standard base font -> object number
}

func newUpdate(file *parsedFile) *update {
	return &update{
		file:     file,
		changed:  make(map[int][]byte),
		nextNum:  file.maxObjNum + 1,
		fontRefs: make(map[string]int),
	}
}

// allocate reserves a new object number for this update section
func (u *update) allocate(body []byte) int {
	num := u.nextNum
	u.nextNum++
	u.changed[num] = body
	return num
}

// fontObject returns the object number of a standard font, creating it once
func (u *update) fontObject(baseFont string) int {
	if num, ok := u.fontRefs[baseFont]; ok {
		return num
	}
	body := []byte(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", baseFont))
	num := u.allocate(body)
	u.fontRefs[baseFont] = num
	return num
}

// rewritePage redacts and overlays one page's content and patches its
// resources to expose the overlay fonts.
func (u *update) rewritePage(pageNum int, pageTargets []target) error {
	pageObj := u.file.objects[pageNum]
	if pageObj == nil {
		return &types.UnsupportedStructureError{Message: fmt.Sprintf("page object %d not found", pageNum)}
	}
	pageBody := string(pageObj.body)

	contentRefs := contentStreamRefs(pageBody)
	if len(contentRefs) == 0 {
		return &types.UnsupportedStructureError{Message: fmt.Sprintf("page %d has no content stream reference", pageNum)}
	}

	decoded, err := u.decodeContents(contentRefs)
	if err != nil {
		return err
	}

	var masks []types.Rect
	var overlays []overlay
	aliases := make(map[string]string) // base font -> resource alias

	for _, tg := range pageTargets {
		masks = append(masks, tg.rect)

		baseFont, _ := mapFont(tg.fontName)
		alias, ok := aliases[baseFont]
		if !ok {
			alias = fmt.Sprintf("/TXF%d", len(aliases)+1)
			aliases[baseFont] = alias
		}

		leading := 1.2 * tg.fontSize
		overlays = append(overlays, overlay{
			fontAlias: alias,
			fontSize:  tg.fontSize,
			leading:   leading,
			x:         tg.rect.X0,
			baseline:  tg.baseline,
			lines:     wrapText(tg.finalText, tg.rect.Width(), tg.fontSize),
		})
	}

	redacted, err := redactShows(decoded, masks)
	if err != nil {
		return &types.UnsupportedStructureError{Message: fmt.Sprintf("cannot rewrite content stream: %v", err)}
	}

	var buf bytes.Buffer
	buf.Write(redacted)
	appendMasksAndOverlays(&buf, masks, overlays)

	u.changed[contentRefs[0]] = encodeStream(buf.Bytes())
	for _, extra := range contentRefs[1:] {
		u.changed[extra] = encodeStream(nil)
	}

	return u.patchResources(pageNum, pageBody, aliases)
}

// contentStreamRefs returns the page's content stream object numbers,
// handling both a single reference and an array of references.
func contentStreamRefs(pageBody string) []int {
	if refs := dictRefArray(pageBody, "Contents"); len(refs) > 0 {
		return refs
	}
	if n, ok := dictRef(pageBody, "Contents"); ok {
		return []int{n}
	}
	return nil
}

// decodeContents concatenates and inflates the page's content streams
func (u *update) decodeContents(refs []int) ([]byte, error) {
	var out bytes.Buffer
	for _, ref := range refs {
		obj := u.file.objects[ref]
		if obj == nil || obj.stream == nil {
			return nil, &types.UnsupportedStructureError{Message: fmt.Sprintf("content stream %d not found", ref)}
		}
		data := obj.stream
		dict := string(obj.body)
		switch {
		case strings.Contains(dict, "/FlateDecode"):
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, &types.MalformedContainerError{Format: types.FormatPDF, Message: "corrupt Flate content stream", Cause: err}
			}
			inflated, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, &types.MalformedContainerError{Format: types.FormatPDF, Message: "corrupt Flate content stream", Cause: err}
			}
			out.Write(inflated)
		case strings.Contains(dict, "/Filter"):
			return nil, &types.UnsupportedStructureError{Message: "content stream uses an unsupported filter"}
		default:
			out.Write(data)
		}
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// encodeStream deflates data and wraps it as a stream object body
func encodeStream(data []byte) []byte {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, _ = zw.Write(data)
	_ = zw.Close()

	var body bytes.Buffer
	fmt.Fprintf(&body, "<< /Length %d /Filter /FlateDecode >>\nstream\n", compressed.Len())
	body.Write(compressed.Bytes())
	body.WriteString("\nendstream")
	return body.Bytes()
}

// patchResources rewrites the page object so its /Resources /Font dictionary
// exposes the overlay font aliases, preserving every existing resource.
func (u *update) patchResources(pageNum int, pageBody string, aliases map[string]string) error {
	var entries []string
	names := make([]string, 0, len(aliases))
	for base := range aliases {
		names = append(names, base)
	}
	sort.Strings(names)
	for _, base := range names {
		entries = append(entries, fmt.Sprintf("%s %d 0 R", aliases[base], u.fontObject(base)))
	}
	fontEntries := strings.Join(entries, " ")

	resources, ok := dictValue(pageBody, "Resources")
	if !ok {
		resources = u.file.resources[pageNum]
	}

	var newResources string
	switch {
	case resources == "":
		newResources = fmt.Sprintf("<< /Font << %s >> >>", fontEntries)
	case strings.HasPrefix(resources, "<<"):
		newResources = insertFonts(resources, fontEntries, u.resolveFontDict)
	default:
		// Reference: copy the referenced dictionary and extend the copy
		refNum, _ := dictRef("/Resources "+resources, "Resources")
		obj := u.file.objects[refNum]
		if obj == nil {
			return &types.UnsupportedStructureError{Message: fmt.Sprintf("resources object %d not found", refNum)}
		}
		newResources = insertFonts(strings.TrimSpace(string(obj.body)), fontEntries, u.resolveFontDict)
	}

	patched, err := replaceOrAddResources(pageBody, newResources)
	if err != nil {
		return err
	}
	u.changed[pageNum] = []byte(patched)
	return nil
}

// resolveFontDict dereferences an indirect /Font dictionary so its entries
// can be merged with the overlay aliases.
func (u *update) resolveFontDict(num int) (string, bool) {
	obj := u.file.objects[num]
	if obj == nil {
		return "", false
	}
	return strings.TrimSpace(string(obj.body)), true
}

var fontRefPattern = regexp.MustCompile(`/Font\s+(\d+)\s+\d+\s+R`)

// insertFonts merges font entries into a resources dictionary's /Font value
func insertFonts(resources, fontEntries string, resolve func(int) (string, bool)) string {
	if m := fontRefPattern.FindStringSubmatch(resources); m != nil {
		// /Font is a reference: inline a merged copy
		num, _ := strconv.Atoi(m[1])
		if fontDict, ok := resolve(num); ok && strings.HasPrefix(fontDict, "<<") {
			merged := "<< " + fontEntries + " " + strings.TrimSuffix(strings.TrimPrefix(fontDict, "<<"), ">>") + " >>"
			return fontRefPattern.ReplaceAllString(resources, "/Font "+merged)
		}
		return resources
	}
	if idx := strings.Index(resources, "/Font"); idx >= 0 {
		open := strings.Index(resources[idx:], "<<")
		if open >= 0 {
			insertAt := idx + open + 2
			return resources[:insertAt] + " " + fontEntries + " " + resources[insertAt:]
		}
	}
	// No font dictionary yet
	return strings.TrimSuffix(resources, ">>") + " /Font << " + fontEntries + " >> >>"
}

// replaceOrAddResources swaps the page dictionary's /Resources value
func replaceOrAddResources(pageBody, newResources string) (string, error) {
	idx := strings.Index(pageBody, "/Resources")
	if idx < 0 {
		end := strings.LastIndex(pageBody, ">>")
		if end < 0 {
			return "", &types.MalformedContainerError{Format: types.FormatPDF, Message: "page object has no dictionary"}
		}
		return pageBody[:end] + " /Resources " + newResources + " >>" + pageBody[end+2:], nil
	}

	rest := pageBody[idx+len("/Resources"):]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	skipped := len(rest) - len(trimmed)

	if strings.HasPrefix(trimmed, "<<") {
		end, err := balancedEnd([]byte(rest), skipped, "<<", ">>")
		if err != nil {
			return "", &types.MalformedContainerError{Format: types.FormatPDF, Message: "unbalanced resources dictionary"}
		}
		return pageBody[:idx] + "/Resources " + newResources + rest[end:], nil
	}

	// Reference form: N G R
	fields := strings.Fields(trimmed)
	if len(fields) >= 3 && fields[2] == "R" {
		consumed := skipped
		for i := 0; i < 3; i++ {
			consumed = strings.Index(rest[consumed:], fields[i]) + consumed + len(fields[i])
		}
		return pageBody[:idx] + "/Resources " + newResources + rest[consumed:], nil
	}
	return "", &types.MalformedContainerError{Format: types.FormatPDF, Message: "unrecognized resources value"}
}

// assemble writes the incremental update: original bytes, the changed and
// new objects, a classic cross-reference section, and a trailer chained to
// the previous one.
func (u *update) assemble(container []byte) []byte {
	var out bytes.Buffer
	out.Write(container)
	if container[len(container)-1] != '\n' {
		out.WriteByte('\n')
	}

	nums := make([]int, 0, len(u.changed))
	for num := range u.changed {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	offsets := make(map[int]int, len(nums))
	for _, num := range nums {
		offsets[num] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", num)
		out.Write(u.changed[num])
		out.WriteString("\nendobj\n")
	}

	xrefOffset := out.Len()
	out.WriteString("xref\n")
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&out, "%d %d\n", nums[i], j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(&out, "%010d %05d n \n", offsets[nums[k]], 0)
		}
		i = j + 1
	}

	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		u.nextNum, u.file.rootRef, u.file.prevStartXref, xrefOffset)
	return out.Bytes()
}
