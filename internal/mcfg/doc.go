/*
Package mcfg implements the MCFG configuration language used by kiln build
files.

An MCFG document is line oriented and block structured:

	sector targets
	  section debug
	    str  exec 'echo building $(%name%)'
	    list str required_targets 'clean', 'prepare'
	    bool strip false
	    u8   jobs 4
	  end
	end

Sectors hold sections, sections hold typed fields. Supported field types are
str, list, bool, i8, u8, i16, u16, i32 and u32. A list declares its element
type after the list keyword and may continue over several lines as long as a
line ends with a comma. A string literal that is not closed on its line
continues on the next one; the line break becomes part of the value.

# Embeds

String values may embed other fields with $(path). A path is either absolute
(/sector/section/field), relative (field or section/field, completed against a
relativity path by the caller) or dynamic (%name%, looked up among the
dynamic fields of the File). Embedding a list repeats the text directly
around the embed for every element:

	-I$(includes)/     =>  -Iinclude/ -Isrc/

Expansion is recursive: values which embed further fields are expanded as
well. Embeds which cannot be resolved are rendered as (nullptr).
*/
package mcfg
