package metadoc

import "gopkg.in/yaml.v3"

// tagsKey is the header field holding the visit-tag list.
const tagsKey = "tags"

// Tags returns the normalized tag list: a missing field is an empty list, a
// bare scalar is a one-element list, and any other shape is discarded.
// Duplicates are kept — repeated day tags are edit history, not noise.
func (d *Document) Tags() []string {
	i := d.find(tagsKey)
	if i < 0 {
		return nil
	}
	n := d.header.Content[i]
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			return nil
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind == yaml.ScalarNode {
				out = append(out, item.Value)
			}
		}
		return out
	default:
		return nil
	}
}

// AddTag appends tag unless an equal string is already anywhere in the
// list, reporting whether the list changed.
func (d *Document) AddTag(tag string) bool {
	tags := d.Tags()
	for _, t := range tags {
		if t == tag {
			return false
		}
	}
	d.writeTags(append(tags, tag))
	return true
}

// AddTagAlways appends tag unconditionally.
func (d *Document) AddTagAlways(tag string) bool {
	d.writeTags(append(d.Tags(), tag))
	return true
}

// EnsureTagFront moves the first occurrence of tag to position 0, inserting
// it when absent. Stray occurrences beyond the first are left where they
// are. Reports whether the list changed.
func (d *Document) EnsureTagFront(tag string) bool {
	tags := d.Tags()
	idx := -1
	for i, t := range tags {
		if t == tag {
			idx = i
			break
		}
	}
	if idx == 0 {
		return false
	}
	if idx > 0 {
		tags = append(tags[:idx], tags[idx+1:]...)
	}
	d.writeTags(append([]string{tag}, tags...))
	return true
}

// writeTags replaces the tags field with a block-style sequence. Whatever
// malformed shape was there before is dropped, per the normalization rule.
func (d *Document) writeTags(tags []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, t := range tags {
		seq.Content = append(seq.Content, scalar(t))
	}
	d.setNode(tagsKey, seq)
}
