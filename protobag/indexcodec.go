package protobag

// indexcodec implements the wire encoding for a bagindex.Index, so it
// can be carried as the inner envelope of a stamped bag_index entry
// (spec.md §6.4). The message-encoding schema library is out of scope
// (spec.md §1), so this is a hand-rolled binary format in the same
// varint-length-prefixed shape envelope.go uses, not a real protobuf
// wire encoding.

import (
	"encoding/binary"
	"sort"

	"protobag.io/bagindex"
	"protobag.io/descriptor"
	"protobag.io/errors"
	"protobag.io/timestamp"
)

// indexTypeURL identifies an encoded bagindex.Index inner envelope.
const indexTypeURL = "type.protobag.io/protobag.BagIndex"

func indexEnvelope(index bagindex.Index) Envelope {
	return Envelope{TypeURL: indexTypeURL, Value: encodeIndex(index)}
}

func decodeIndexEnvelope(e Envelope) (bagindex.Index, error) {
	if e.TypeURL != indexTypeURL {
		return bagindex.Index{}, errors.E("protobag.decodeIndexEnvelope", errors.DecodeError,
			errors.Str("envelope is not a BagIndex"))
	}
	return decodeIndex(e.Value)
}

func encodeIndex(idx bagindex.Index) []byte {
	var b []byte
	b = appendVarint(b, idx.Start.Sec)
	b = appendVarint(b, int64(idx.Start.Nsec))
	b = appendVarint(b, idx.End.Sec)
	b = appendVarint(b, int64(idx.End.Nsec))
	b = appendIndexString(b, idx.ProtobagVersion)

	topics := make([]string, 0, len(idx.TopicToStats))
	for t := range idx.TopicToStats {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	b = appendUvarint(b, uint64(len(topics)))
	for _, t := range topics {
		b = appendIndexString(b, t)
		b = appendVarint(b, idx.TopicToStats[t].NMessages)
	}

	b = appendUvarint(b, uint64(len(idx.TimeOrderedEntries)))
	for _, tt := range idx.TimeOrderedEntries {
		b = appendIndexString(b, tt.Topic)
		b = appendVarint(b, tt.Timestamp.Sec)
		b = appendVarint(b, int64(tt.Timestamp.Nsec))
		b = appendIndexString(b, tt.EntryName)
	}

	typeURLs := make([]string, 0, len(idx.DescriptorPoolData.TypeURLToDescriptor))
	for u := range idx.DescriptorPoolData.TypeURLToDescriptor {
		typeURLs = append(typeURLs, u)
	}
	sort.Strings(typeURLs)
	b = appendUvarint(b, uint64(len(typeURLs)))
	for _, u := range typeURLs {
		b = appendIndexString(b, u)
		fs := idx.DescriptorPoolData.TypeURLToDescriptor[u]
		b = appendUvarint(b, uint64(len(fs.Files)))
		for _, f := range fs.Files {
			b = appendIndexString(b, f.Name)
			b = appendIndexBytes(b, f.Data)
			b = appendUvarint(b, uint64(len(f.Deps)))
			for _, d := range f.Deps {
				b = appendIndexString(b, d)
			}
		}
	}

	names := make([]string, 0, len(idx.DescriptorPoolData.EntrynameToTypeURL))
	for n := range idx.DescriptorPoolData.EntrynameToTypeURL {
		names = append(names, n)
	}
	sort.Strings(names)
	b = appendUvarint(b, uint64(len(names)))
	for _, n := range names {
		b = appendIndexString(b, n)
		b = appendIndexString(b, idx.DescriptorPoolData.EntrynameToTypeURL[n])
	}

	return b
}

func decodeIndex(data []byte) (bagindex.Index, error) {
	const op = "protobag.decodeIndex"
	r := &indexReader{b: data}

	idx := bagindex.NewIndex("")
	idx.Start.Sec = r.varint()
	idx.Start.Nsec = int32(r.varint())
	idx.End.Sec = r.varint()
	idx.End.Nsec = int32(r.varint())
	idx.ProtobagVersion = r.str()

	nTopics := r.uvarint()
	for i := uint64(0); i < nTopics; i++ {
		topic := r.str()
		n := r.varint()
		idx.TopicToStats[topic] = bagindex.TopicStats{NMessages: n}
	}

	nEntries := r.uvarint()
	idx.TimeOrderedEntries = make([]timestamp.TopicTime, 0, nEntries)
	for i := uint64(0); i < nEntries; i++ {
		topic := r.str()
		sec := r.varint()
		nsec := int32(r.varint())
		name := r.str()
		idx.TimeOrderedEntries = append(idx.TimeOrderedEntries, timestamp.TopicTime{
			Topic:     topic,
			Timestamp: timestamp.Timestamp{Sec: sec, Nsec: nsec},
			EntryName: name,
		})
	}

	nTypes := r.uvarint()
	for i := uint64(0); i < nTypes; i++ {
		typeURL := r.str()
		nFiles := r.uvarint()
		fs := descriptor.FileSet{Files: make([]descriptor.File, 0, nFiles)}
		for j := uint64(0); j < nFiles; j++ {
			name := r.str()
			data := r.bytes()
			nDeps := r.uvarint()
			deps := make([]string, 0, nDeps)
			for k := uint64(0); k < nDeps; k++ {
				deps = append(deps, r.str())
			}
			fs.Files = append(fs.Files, descriptor.File{Name: name, Data: data, Deps: deps})
		}
		idx.DescriptorPoolData.TypeURLToDescriptor[typeURL] = fs
	}

	nNames := r.uvarint()
	for i := uint64(0); i < nNames; i++ {
		name := r.str()
		typeURL := r.str()
		idx.DescriptorPoolData.EntrynameToTypeURL[name] = typeURL
	}

	if r.err != nil {
		return bagindex.Index{}, errors.E(op, errors.DecodeError, r.err)
	}
	return idx, nil
}

type indexReader struct {
	b   []byte
	err error
}

func (r *indexReader) varint() int64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.b)
	if n <= 0 {
		r.err = errors.Str("bad varint in index encoding")
		return 0
	}
	r.b = r.b[n:]
	return v
}

func (r *indexReader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.b)
	if n <= 0 {
		r.err = errors.Str("bad uvarint in index encoding")
		return 0
	}
	r.b = r.b[n:]
	return v
}

func (r *indexReader) bytes() []byte {
	if r.err != nil {
		return nil
	}
	n := r.uvarint()
	if r.err != nil {
		return nil
	}
	if uint64(len(r.b)) < n {
		r.err = errors.Str("truncated index encoding")
		return nil
	}
	data := r.b[:n]
	r.b = r.b[n:]
	return data
}

func (r *indexReader) str() string { return string(r.bytes()) }

func appendVarint(b []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendIndexBytes(b, data []byte) []byte {
	b = appendUvarint(b, uint64(len(data)))
	return append(b, data...)
}

func appendIndexString(b []byte, s string) []byte {
	return appendIndexBytes(b, []byte(s))
}
