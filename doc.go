/*
Package ordkv stores multi-field records in any lexicographically-ordered
byte store (Bolt, an in-memory sorted map, anything implementing Store),
keeping tuple order and supporting efficient prefix and range scans over
leading key fields.

The core is the composite-key codec: a tuple of typed fields is encoded
into a single byte string such that byte-lexicographic order of the
encodings equals field-by-field order of the tuples, exactly like a
multi-column sort. On top of that, Table glues a codec to a Store and a
value codec.

# Key encoding

**Fixed-width fields** (bool, integers, floats, time, uuid, fixed byte
arrays, nested fixed tuples) encode big-endian at constant width. Signed
integers and times have the sign bit flipped so that unsigned byte order
matches signed order. Floats flip the sign bit when positive and
complement every bit when negative, which makes byte order match IEEE
order including negatives; NaN has no place in a total order and is
rejected.

**Variable-width fields** (bytes, strings) encode to bytes whose prefix
relation matches the value's own ordering: raw UTF-8 for byte-ordered
strings, 4-byte big-endian code points for code-point-ordered strings
(chosen per field at schema definition time).

**Framing.** A variable-width field followed by more fields is framed so
that field boundaries stay unambiguous: every literal 0x00 payload byte
becomes the pair (0x00, 0xFF) and the field ends with the terminator pair
(0x00, 0x01). The terminator sorts below everything a payload can produce,
so framing never reorders keys. The last field of a schema is stored
unframed and decoded greedily.

**Partial keys.** Encoding only the leading fields of a tuple produces a
valid scan bound: every full key whose leading fields equal the partial
tuple falls between the partial key and its prefix successor.

# Values

Values are opaque to the key layer. The default codec is msgpack; JSON and
raw pass-through are provided, plus composable wrappers for compression
(snappy, zlib, lz4, zstd; a 1-byte type indicator precedes the payload)
and xxhash64 checksumming.

# Errors

Key decode failures (truncation, bad escapes, missing terminators,
trailing bytes) always surface; a scan aborts at the offending entry
rather than skipping it. Backing-store errors pass through unmodified.
*/
package ordkv
